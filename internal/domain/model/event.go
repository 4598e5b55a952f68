// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// EventKind discriminates the grading log event union.
type EventKind int

// Event kinds recognized by the scanner. Anything else is KindOther and
// is ignored during replay.
const (
	KindOther EventKind = iota
	KindScoreAssessment
	KindScoreQuestion
	KindSubmission
	KindManualGradingResult
)

// String returns the platform's event name for the kind.
func (k EventKind) String() string {
	switch k {
	case KindScoreAssessment:
		return "Score assessment"
	case KindScoreQuestion:
		return "Score question"
	case KindSubmission:
		return "Submission"
	case KindManualGradingResult:
		return "Manual grading results"
	default:
		return "Other"
	}
}

// Event is one entry of an assessment instance's grading log.
// The source does not guarantee timestamp order.
type Event struct {
	Kind       EventKind
	Timestamp  time.Time
	Actor      string // uid of the user that produced the event
	QuestionID string // set for question-scoped kinds
	Points     float64
}

// SortEvents orders events by timestamp only. The sort is stable so that
// source order breaks ties.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
