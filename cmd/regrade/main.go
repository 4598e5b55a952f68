package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	service "github.com/courseops/regrade/internal/app"
	"github.com/courseops/regrade/internal/adapters/platform"
	"github.com/courseops/regrade/internal/adapters/report"
	"github.com/courseops/regrade/internal/config"
	"github.com/courseops/regrade/internal/domain/finalize"
	"github.com/courseops/regrade/internal/domain/model"
	"github.com/courseops/regrade/internal/domain/scan"
	"github.com/courseops/regrade/pkg/logger"
	"github.com/courseops/regrade/pkg/metrics"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics listener timeout constants.
const (
	metricsReadHeaderTimeout = 5 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	// Optional .env for the token; environment wins over the file.
	_ = godotenv.Load()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env), then layer
	// command-line flags on top.
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	var (
		domain     = flag.String("domain", cfg.Domain, "Platform host")
		token      = flag.String("token", cfg.Token, "Platform API token")
		courseID   = flag.String("course", cfg.CourseInstanceID, "Course instance ID")
		assessment = flag.String("assessment", cfg.Assessment, "Assessment name or id (prompts when empty)")
		output     = flag.String("output", cfg.Output, "Output CSV filename")
		logFile    = flag.String("log", cfg.LogFile, "Run log filename")
		workers    = flag.Int("workers", cfg.WorkerCount, "Number of concurrent workers")
		yes        = flag.Bool("yes", cfg.AssumeYes, "Accept computed deadlines without prompting")
	)
	flag.Parse()

	cfg.Domain = *domain
	cfg.Token = *token
	cfg.CourseInstanceID = *courseID
	cfg.Assessment = *assessment
	cfg.Output = *output
	cfg.LogFile = *logFile
	cfg.WorkerCount = *workers
	cfg.AssumeYes = *yes

	if err := cfg.Validate(ctx); err != nil {
		os.Stderr.WriteString("invalid config: " + err.Error() + "\n")
		return 1
	}

	// Initialize logging, mirrored to the run log file.
	if err := logger.InitWithFile(cfg.LogFile); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	runID := uuid.NewString()
	log.Info(ctx, "starting run",
		logger.String("runID", runID),
		logger.String("course", cfg.CourseInstanceID),
		logger.String("output", cfg.Output),
	)

	// Optional Prometheus listener for long batches.
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	client := platform.NewClient(cfg.Domain, cfg.Token,
		platform.WithRetryMax(cfg.RetryMax),
		platform.WithRetryDelay(time.Duration(cfg.RetryDelayMS)*time.Millisecond),
	)
	course := platform.NewCourse(client, cfg.CourseInstanceID)

	selector := cfg.Assessment
	if selector == "" {
		selector, err = chooseAssessment(ctx, course, os.Stdin, os.Stdout)
		if err != nil {
			log.Error(ctx, "assessment selection failed", logger.Error(err))
			return 1
		}
	}

	var confirmer platform.Confirmer = platform.PassthroughConfirmer{}
	if !cfg.AssumeYes {
		confirmer = newStdinConfirmer()
	}

	svc := service.New(course,
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithConfirmer(confirmer),
		service.WithPolicy(scanPolicy(cfg.Policy)),
		service.WithFinalizer(finalize.New(
			finalize.WithHalvedMakeupOnly(cfg.HalveMakeupOnly),
			finalize.WithChangeEpsilon(cfg.ChangeEpsilon),
		)),
		service.WithOmitUnchanged(cfg.OmitUnchanged),
	)

	outcome, err := svc.Run(ctx, selector)
	if err != nil {
		log.Error(ctx, "run failed", logger.String("runID", runID), logger.Error(err))
		return 1
	}

	if err := writeOutcome(cfg.Output, outcome); err != nil {
		log.Error(ctx, "failed to write output", logger.Error(err))
		return 1
	}

	log.Info(ctx, "total score saved",
		logger.String("runID", runID),
		logger.String("output", cfg.Output),
		logger.Int("students", outcome.Total),
		logger.Int("skipped", outcome.Skipped),
	)
	return 0
}

// writeOutcome picks the CSV shape matching the assessment type.
func writeOutcome(path string, outcome service.Outcome) error {
	if outcome.Type == model.TypeExam {
		return report.WriteExamScoresFile(path, outcome.ExamScores)
	}
	return report.WriteGradesFile(path, outcome.Grades)
}

// scanPolicy maps the config policy name onto the scanner's enum. The
// name was validated during config validation.
func scanPolicy(name string) scan.Policy {
	if name == config.PolicyPerQuestion {
		return scan.PolicyPerQuestion
	}
	return scan.PolicyWholeAssessment
}

// serveMetrics exposes the custom registry until the context ends.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Get().Warn(ctx, "metrics listener failed", logger.Error(err))
	}
}
