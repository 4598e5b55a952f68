// Package worker defines the worker pool that fans grading work out
// across students and funnels completions back to a single consumer.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/courseops/regrade/internal/adapters/mq/queue"
	"github.com/courseops/regrade/internal/domain/model"
	"github.com/courseops/regrade/pkg/logger"
	"github.com/courseops/regrade/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 32 // sized for I/O-bound fan-out
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Task is what workers read off the queue.
type Task = queue.Task

// Grader computes one student's score record. Implementations fetch the
// instance's question set and grading log and replay them; any failure is
// scoped to that student.
type Grader interface {
	Grade(ctx context.Context, task Task) (model.ScoreRecord, error)
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Task
}

// Result is one completed task. Err is set when the student's
// reconstruction failed; the record is then meaningless.
type Result struct {
	UID    string
	Record model.ScoreRecord
	Err    error
}

// Worker processes tasks and delivers results on the completion channel.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// GradeWorker implements Worker for per-student reconstruction.
type GradeWorker struct {
	queue   Queue
	grader  Grader
	results chan<- Result
	name    string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewGradeWorker creates a new worker with configuration options.
func NewGradeWorker(q Queue, grader Grader, results chan<- Result, opts ...Option) *GradeWorker {
	w := &GradeWorker{
		queue:    q,
		grader:   grader,
		results:  results,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *GradeWorker) Run(ctx context.Context) {
	defer close(w.done)

	taskChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case task, ok := <-taskChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}
			w.processTask(ctx, task)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *GradeWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processTask grades a single student and reports the completion. A
// failure never escapes the task: it is logged, counted, and forwarded as
// an errored result so the batch keeps going.
func (w *GradeWorker) processTask(ctx context.Context, task Task) {
	start := time.Now()

	record, err := w.grader.Grade(ctx, task)

	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordScanFailed()
		w.logger.Error(ctx, "grading failed for student",
			logger.String("uid", task.UID),
			logger.Error(err),
		)
	} else {
		metrics.RecordScanCompleted()
	}

	select {
	case w.results <- Result{UID: task.UID, Record: record, Err: err}:
	case <-ctx.Done():
	}
}

// Pool manages multiple workers feeding one completion channel.
type Pool struct {
	workers []*GradeWorker
	queue   Queue
	grader  Grader
	results chan<- Result

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, grader Grader, results chan<- Result) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:  make([]*GradeWorker, workerCount),
		queue:    q,
		grader:   grader,
		results:  results,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewGradeWorker(
			q,
			grader,
			results,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown closes the queue and waits for every worker to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
