package report

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMalformedRow = errors.New("malformed csv row")
)
