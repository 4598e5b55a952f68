package platform

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrRetryExhausted marks a request that kept hitting the transient
	// status until the retry budget ran out.
	ErrRetryExhausted = errors.New("retry budget exhausted")

	// ErrUnexpectedStatus marks any non-success, non-transient response.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrUnknownAssessment marks a selector matching no assessment.
	ErrUnknownAssessment = errors.New("unknown assessment")

	// ErrNoDueDateRule marks an assessment with no full-credit public
	// access rule to derive a due date from.
	ErrNoDueDateRule = errors.New("no full-credit public access rule")

	// ErrNotInGradebook marks a student row without the requested
	// assessment.
	ErrNotInGradebook = errors.New("assessment not in gradebook row")
)
