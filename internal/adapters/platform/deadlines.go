package platform

import (
	"context"
	"fmt"
	"time"
)

// MakeupExtension is the grace window past the nominal due date: one week
// plus a small slack past exactly seven days.
const MakeupExtension = 7*24*time.Hour + time.Minute

// Confirmer lets an operator confirm or override a computed deadline.
// The core never blocks on terminal input; interactive confirmation is an
// injected collaborator.
type Confirmer interface {
	Confirm(ctx context.Context, label string, t time.Time) (time.Time, error)
}

// PassthroughConfirmer accepts every computed deadline unchanged.
type PassthroughConfirmer struct{}

// Confirm returns t as-is.
func (PassthroughConfirmer) Confirm(_ context.Context, _ string, t time.Time) (time.Time, error) {
	return t, nil
}

type accessRule struct {
	Mode    string  `json:"mode"`
	Credit  float64 `json:"credit"`
	EndDate string  `json:"end_date"`
}

// DueDate computes the nominal due date: the latest end date among public
// access rules granting full credit. The rule that grants 100% defines
// "on time".
func (c *Course) DueDate(ctx context.Context, assessmentID int64) (time.Time, error) {
	var rules []accessRule
	endpoint := fmt.Sprintf("/course_instances/%s/assessments/%d/assessment_access_rules", c.id, assessmentID)
	if err := c.client.Get(ctx, endpoint, &rules); err != nil {
		return time.Time{}, err
	}

	var due time.Time
	found := false
	for _, r := range rules {
		if r.Mode != "Public" || r.Credit != 100 {
			continue
		}
		end, err := time.Parse(time.RFC3339, r.EndDate)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse access rule end date %q: %w", r.EndDate, err)
		}
		if !found || end.After(due) {
			due = end
			found = true
		}
	}
	if !found {
		return time.Time{}, fmt.Errorf("%w: assessment %d", ErrNoDueDateRule, assessmentID)
	}
	return due, nil
}
