// Package scan replays one assessment instance's grading log against the
// original and makeup deadlines and extracts the best score achieved in
// each window.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/courseops/regrade/internal/domain/model"
)

// Policy selects how log events are turned into assessment totals.
type Policy int

const (
	// PolicyWholeAssessment replays "Score assessment" snapshots,
	// corrected for after-the-fact manual grading.
	PolicyWholeAssessment Policy = iota

	// PolicyPerQuestion keeps a per-question maximum of "Score question"
	// events, reattributing staff-authored scores to the student's last
	// submission time.
	PolicyPerQuestion
)

// Input carries everything the scanner needs for one student.
type Input struct {
	UID       string
	Events    []model.Event
	Questions []model.Question
}

// Result mirrors the window-bounded fields of a model.ScoreRecord.
type Result struct {
	Orig        *model.Score
	Makeup      *model.Score
	TotalPoints float64
}

// Scanner is a pure computation over an in-memory event list. The two
// cutoffs are read-only and safe to share across goroutines.
type Scanner struct {
	dueDate       time.Time
	makeupDueDate time.Time
	policy        Policy
}

// New creates a scanner for the given deadline pair.
func New(dueDate, makeupDueDate time.Time, opts ...Option) *Scanner {
	s := &Scanner{
		dueDate:       dueDate,
		makeupDueDate: makeupDueDate,
		policy:        PolicyWholeAssessment,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Scan sorts the input events by timestamp and replays them under the
// configured policy. Context is accepted for interface consistency; the
// computation itself never blocks.
func (s *Scanner) Scan(_ context.Context, in Input) (Result, error) {
	model.SortEvents(in.Events)

	switch s.policy {
	case PolicyPerQuestion:
		return s.scanPerQuestion(in)
	default:
		return s.scanWholeAssessment(in)
	}
}

// scanWholeAssessment implements the whole-assessment policy.
//
// A first pass records the final manual points per question, regardless of
// window. The replay then normalizes every score snapshot as
//
//	current total - sum(manual points at that time) + sum(final manual points)
//
// so a snapshot is never penalized merely because manual grading had not
// happened yet.
func (s *Scanner) scanWholeAssessment(in Input) (Result, error) {
	lastManual := make(map[string]float64)
	for _, q := range in.Questions {
		if q.ManuallyGraded() {
			lastManual[q.ID] = 0
		}
	}
	for _, e := range in.Events {
		if e.Kind != model.KindManualGradingResult {
			continue
		}
		if e.QuestionID == "" {
			return Result{}, fmt.Errorf("%w: manual grading result without question id at %s",
				ErrMalformedEvent, e.Timestamp.Format(time.RFC3339))
		}
		lastManual[e.QuestionID] = e.Points
	}

	curManual := make(map[string]float64, len(lastManual))
	var curTotal float64

	res := Result{TotalPoints: model.TotalPoints(in.Questions)}
	for _, e := range in.Events {
		switch e.Kind {
		case model.KindScoreAssessment:
			curTotal = e.Points
		case model.KindManualGradingResult:
			curManual[e.QuestionID] = e.Points
		default:
			continue
		}

		normalized := curTotal - sumValues(curManual) + sumValues(lastManual)

		if !e.Timestamp.After(s.dueDate) {
			takeBest(&res.Orig, normalized, e.Timestamp)
		}
		if !e.Timestamp.After(s.makeupDueDate) {
			takeBest(&res.Makeup, normalized, e.Timestamp)
		}
	}

	return res, nil
}

// windowBest tracks the running per-question maximum for one window.
type windowBest struct {
	points float64
	at     time.Time
}

// scanPerQuestion implements the per-question policy.
//
// Staff-authored "Score question" events are re-timestamped to the
// student's latest prior submission for that question, so grading latency
// cannot push a score past a deadline the student actually met.
func (s *Scanner) scanPerQuestion(in Input) (Result, error) {
	lastSubmission := make(map[string]time.Time)
	submitted := make(map[string]bool)

	origBest := make(map[string]windowBest)
	makeupBest := make(map[string]windowBest)

	for _, e := range in.Events {
		switch e.Kind {
		case model.KindSubmission:
			if e.QuestionID == "" {
				return Result{}, fmt.Errorf("%w: submission without question id at %s",
					ErrMalformedEvent, e.Timestamp.Format(time.RFC3339))
			}
			lastSubmission[e.QuestionID] = e.Timestamp
			submitted[e.QuestionID] = true

		case model.KindScoreQuestion:
			if e.QuestionID == "" {
				return Result{}, fmt.Errorf("%w: score question without question id at %s",
					ErrMalformedEvent, e.Timestamp.Format(time.RFC3339))
			}

			at := e.Timestamp
			if e.Actor != "" && e.Actor != in.UID {
				if !submitted[e.QuestionID] {
					return Result{}, fmt.Errorf("%w: question %s scored by %s before any submission",
						ErrUnattributableScore, e.QuestionID, e.Actor)
				}
				at = lastSubmission[e.QuestionID]
			}

			if !at.After(s.dueDate) {
				takeQuestionBest(origBest, e.QuestionID, e.Points, at)
			}
			if !at.After(s.makeupDueDate) {
				takeQuestionBest(makeupBest, e.QuestionID, e.Points, at)
			}
		}
	}

	res := Result{TotalPoints: model.TotalPoints(in.Questions)}
	res.Orig = sumWindow(origBest)
	res.Makeup = sumWindow(makeupBest)
	return res, nil
}

// takeBest replaces the window score when the candidate is strictly better
// or the window is still empty.
func takeBest(slot **model.Score, points float64, at time.Time) {
	if *slot == nil || points > (*slot).Points {
		*slot = &model.Score{Points: points, At: at}
	}
}

// takeQuestionBest keeps the maximum points per question; ties keep the
// earlier event.
func takeQuestionBest(best map[string]windowBest, qid string, points float64, at time.Time) {
	b, ok := best[qid]
	if !ok || points > b.points {
		best[qid] = windowBest{points: points, at: at}
	}
}

// sumWindow sums per-question maxima into the window total. Questions with
// no qualifying event contribute zero; a window with no qualifying events
// at all yields an absent score. The achieving timestamp is the latest
// contributing one.
func sumWindow(best map[string]windowBest) *model.Score {
	if len(best) == 0 {
		return nil
	}
	score := &model.Score{}
	for _, b := range best {
		score.Points += b.points
		if b.at.After(score.At) {
			score.At = b.at
		}
	}
	return score
}

func sumValues(m map[string]float64) float64 {
	var sum float64
	for _, v := range m {
		sum += v
	}
	return sum
}
