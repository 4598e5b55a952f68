// Package service runs one grade-reconstruction batch: resolve the
// assessment, compute the deadline pair, fan the per-student log replay
// out across a worker pool, and blend the surviving records into final
// grades.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/courseops/regrade/internal/adapters/mq/queue"
	"github.com/courseops/regrade/internal/adapters/mq/worker"
	"github.com/courseops/regrade/internal/adapters/platform"
	"github.com/courseops/regrade/internal/domain/finalize"
	"github.com/courseops/regrade/internal/domain/model"
	"github.com/courseops/regrade/internal/domain/scan"
	"github.com/courseops/regrade/pkg/logger"
)

// Default service configuration constants.
const (
	defaultWorkerCount = 32
	defaultQueueSize   = 10_000
	percent            = 100
)

// Outcome is the result of one batch run.
type Outcome struct {
	Type model.AssessmentType

	// Grades is populated on the homework path, in completion order.
	Grades []model.FinalGrade

	// ExamScores is populated on the exam shortcut path.
	ExamScores []model.ExamScore

	// Total counts submitted students; Skipped counts per-student
	// failures; Omitted counts students dropped as unchanged.
	Total   int
	Skipped int
	Omitted int
}

// Service orchestrates a reconstruction batch.
type Service struct {
	course    *platform.Course
	confirmer platform.Confirmer
	finalizer *finalize.Finalizer

	workerCount   int
	queueSize     int
	policy        scan.Policy
	omitUnchanged bool

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(course *platform.Course, opts ...Option) *Service {
	s := &Service{
		course:      course,
		confirmer:   platform.PassthroughConfirmer{},
		finalizer:   finalize.New(),
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		policy:      scan.PolicyWholeAssessment,
		logger:      nil, // resolved lazily so options can run before logger.Init
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	return s
}

// Run resolves the selector and reconstructs grades for every student of
// the chosen assessment. Resolution-phase errors abort the run; failures
// inside the concurrent phase only skip their student.
func (s *Service) Run(ctx context.Context, selector string) (Outcome, error) {
	assessmentID, err := s.course.Resolve(ctx, selector)
	if err != nil {
		return Outcome{}, err
	}
	s.logger.Info(ctx, "selected assessment", logger.Any("assessmentID", assessmentID))

	assessmentType, err := s.course.AssessmentType(ctx, assessmentID)
	if err != nil {
		return Outcome{}, err
	}

	if assessmentType == model.TypeExam {
		return s.runExam(ctx, assessmentID)
	}
	return s.runHomework(ctx, assessmentID)
}

// runExam takes the gradebook shortcut: the platform already reports a
// final percentage per student, so no log replay happens.
func (s *Service) runExam(ctx context.Context, assessmentID int64) (Outcome, error) {
	scores, err := s.course.GradebookScores(ctx, assessmentID)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Type: model.TypeExam, Total: len(scores)}
	for uid, perc := range scores {
		out.ExamScores = append(out.ExamScores, model.ExamScore{UID: uid, ScorePerc: perc})
	}
	return out, nil
}

// runHomework reconstructs deadline-bounded scores from the grading logs.
func (s *Service) runHomework(ctx context.Context, assessmentID int64) (Outcome, error) {
	due, makeupDue, err := s.deadlines(ctx, assessmentID)
	if err != nil {
		return Outcome{}, err
	}

	instances, err := s.course.Instances(ctx, assessmentID)
	if err != nil {
		return Outcome{}, err
	}

	total := len(instances)
	s.logger.Info(ctx, "starting reconstruction",
		logger.Int("students", total),
		logger.Int("workers", s.workerCount),
		logger.String("dueDate", due.String()),
		logger.String("makeupDueDate", makeupDue.String()),
	)

	scanner := scan.New(due, makeupDue, scan.WithPolicy(s.policy))
	grader := &instanceGrader{course: s.course, scanner: scanner}

	capacity := s.queueSize
	if total > capacity {
		capacity = total
	}
	tasks := queue.NewInMemoryQueue(
		queue.WithCapacity(capacity),
		queue.WithBufferSize(capacity),
	)
	for uid, instanceID := range instances {
		if !tasks.Enqueue(ctx, queue.Task{UID: uid, InstanceID: instanceID}) {
			_ = tasks.Close()
			return Outcome{}, fmt.Errorf("enqueue task for %s: queue refused", uid)
		}
	}
	// No more tasks; workers drain the queue and exit.
	_ = tasks.Close()

	results := make(chan worker.Result, total)
	pool := worker.NewPool(s.workerCount, tasks, grader, results)
	pool.Start(ctx)
	defer pool.Stop()

	return s.collect(ctx, results, total)
}

// collect is the single consumer of the completion channel: it alone
// appends to the outcome, so the merge needs no locking.
func (s *Service) collect(ctx context.Context, results <-chan worker.Result, total int) (Outcome, error) {
	out := Outcome{Type: model.TypeHomework, Total: total}

	for done := 1; done <= total; done++ {
		var res worker.Result
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case res = <-results:
		}

		s.logger.Info(ctx, "progress",
			logger.Int("done", done),
			logger.Int("total", total),
			logger.Float64("percent", float64(done)/float64(total)*percent),
		)

		if res.Err != nil {
			// Already logged with uid by the worker.
			out.Skipped++
			continue
		}
		if s.omitUnchanged && !s.finalizer.Changed(res.Record) {
			out.Omitted++
			continue
		}
		out.Grades = append(out.Grades, s.finalizer.Blend(res.Record))
	}

	s.logger.Info(ctx, "reconstruction finished",
		logger.Int("graded", len(out.Grades)),
		logger.Int("skipped", out.Skipped),
		logger.Int("omitted", out.Omitted),
	)
	return out, nil
}

// deadlines computes the due-date pair and passes each through the
// confirmer.
func (s *Service) deadlines(ctx context.Context, assessmentID int64) (due, makeupDue time.Time, err error) {
	computed, err := s.course.DueDate(ctx, assessmentID)
	if err != nil {
		return due, makeupDue, err
	}
	due, err = s.confirmer.Confirm(ctx, "orig due date", computed)
	if err != nil {
		return due, makeupDue, err
	}
	makeupDue, err = s.confirmer.Confirm(ctx, "makeup due date", due.Add(platform.MakeupExtension))
	if err != nil {
		return due, makeupDue, err
	}
	return due, makeupDue, nil
}

// instanceGrader adapts the platform fetchers plus the scanner to the
// worker pool's Grader port.
type instanceGrader struct {
	course  *platform.Course
	scanner *scan.Scanner
}

func (g *instanceGrader) Grade(ctx context.Context, task worker.Task) (model.ScoreRecord, error) {
	questions, err := g.course.InstanceQuestions(ctx, task.InstanceID)
	if err != nil {
		return model.ScoreRecord{}, err
	}

	events, err := g.course.InstanceLog(ctx, task.InstanceID)
	if err != nil {
		return model.ScoreRecord{}, err
	}

	res, err := g.scanner.Scan(ctx, scan.Input{UID: task.UID, Events: events, Questions: questions})
	if err != nil {
		return model.ScoreRecord{}, err
	}

	return model.ScoreRecord{
		UID:         task.UID,
		Orig:        res.Orig,
		Makeup:      res.Makeup,
		TotalPoints: res.TotalPoints,
	}, nil
}
