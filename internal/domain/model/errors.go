package model

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownAssessmentType = errors.New("unknown assessment type")
)
