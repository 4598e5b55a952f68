// Package config defines tool configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Scoring policy names accepted in configuration.
const (
	PolicyWholeAssessment = "whole-assessment"
	PolicyPerQuestion     = "per-question"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile is the append-only run log, mirrored to stdout.
	LogFile string `koanf:"log_file"`

	// Domain is the platform host, e.g. "https://us.prairielearn.com".
	Domain string `koanf:"domain" validate:"required,url"`

	// Token is the platform API bearer token.
	Token string `koanf:"token" validate:"required"`

	// CourseInstanceID selects the course instance to read.
	CourseInstanceID string `koanf:"course_instance_id" validate:"required"`

	// Assessment is the selector (name or id). When empty the tool lists
	// assessments and prompts.
	Assessment string `koanf:"assessment"`

	// Output is the CSV filename.
	Output string `koanf:"output" validate:"required"`

	// WorkerCount sets the number of concurrent per-student workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=1"`

	// QueueSize bounds the in-memory task queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// RetryMax caps attempts on the transient gateway status.
	RetryMax int `koanf:"retry_max" validate:"gte=1"`

	// RetryDelayMS is the constant inter-attempt delay in milliseconds.
	RetryDelayMS int `koanf:"retry_delay_ms" validate:"gte=0"`

	// Policy selects the homework scoring policy.
	Policy string `koanf:"policy" validate:"oneof=whole-assessment per-question"`

	// HalveMakeupOnly halves the blend when only a makeup score exists.
	HalveMakeupOnly bool `koanf:"halve_makeup_only"`

	// OmitUnchanged drops students whose makeup score equals the original.
	OmitUnchanged bool `koanf:"omit_unchanged"`

	// ChangeEpsilon is the equivalence threshold used with OmitUnchanged.
	ChangeEpsilon float64 `koanf:"change_epsilon" validate:"gte=0"`

	// MetricsAddr exposes Prometheus metrics during long runs when set,
	// e.g. ":9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// AssumeYes skips interactive deadline confirmation.
	AssumeYes bool `koanf:"assume_yes"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:      "info",
		LogFile:       "regrade.log",
		Domain:        "https://us.prairielearn.com",
		Output:        "grade.csv",
		WorkerCount:   32,
		QueueSize:     10_000,
		RetryMax:      5,
		RetryDelayMS:  10_000,
		Policy:        PolicyWholeAssessment,
		ChangeEpsilon: 1e-9,
	}
}

// Validate checks the assembled configuration, after file, env, and flag
// layers have all been applied.
func (c *Config) Validate(_ context.Context) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
