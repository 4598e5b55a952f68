package service

import (
	"github.com/courseops/regrade/internal/adapters/platform"
	"github.com/courseops/regrade/internal/domain/finalize"
	"github.com/courseops/regrade/internal/domain/scan"
	"github.com/courseops/regrade/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of concurrent per-student workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the task queue bound.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithConfirmer sets the deadline confirmation collaborator.
func WithConfirmer(c platform.Confirmer) Option {
	return func(s *Service) {
		if c != nil {
			s.confirmer = c
		}
	}
}

// WithPolicy selects the homework scoring policy.
func WithPolicy(p scan.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithFinalizer replaces the blend policy.
func WithFinalizer(f *finalize.Finalizer) Option {
	return func(s *Service) {
		if f != nil {
			s.finalizer = f
		}
	}
}

// WithOmitUnchanged drops students whose makeup score is equivalent to
// the original from the outcome.
func WithOmitUnchanged(omit bool) Option {
	return func(s *Service) {
		s.omitUnchanged = omit
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
