package scan

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrMalformedEvent marks a log event missing a required field.
	ErrMalformedEvent = errors.New("malformed log event")

	// ErrUnattributableScore marks a staff-authored score with no prior
	// submission to attribute it to.
	ErrUnattributableScore = errors.New("unattributable staff score")
)
