package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/courseops/regrade/internal/domain/model"
	"github.com/courseops/regrade/internal/domain/scan"
)

type questionSummary struct {
	QuestionName    string  `json:"question_name"`
	MaxPoints       float64 `json:"assessment_question_max_points"`
	MaxManualPoints float64 `json:"assessment_question_max_manual_points"`
}

type logEntry struct {
	EventName   string `json:"event_name"`
	DateISO     string `json:"date_iso8601"`
	QID         string `json:"qid"`
	AuthUserUID string `json:"auth_user_uid"`
	Data        struct {
		Points       *float64 `json:"points"`
		ManualPoints *float64 `json:"manual_points"`
	} `json:"data"`
}

type gradebookRow struct {
	UserUID     string `json:"user_uid"`
	Assessments []struct {
		AssessmentID int64   `json:"assessment_id"`
		ScorePerc    float64 `json:"score_perc"`
	} `json:"assessments"`
}

// InstanceQuestions fetches the question set of one assessment instance.
func (c *Course) InstanceQuestions(ctx context.Context, instanceID int64) ([]model.Question, error) {
	var summaries []questionSummary
	endpoint := fmt.Sprintf("/course_instances/%s/assessment_instances/%d/instance_questions", c.id, instanceID)
	if err := c.client.Get(ctx, endpoint, &summaries); err != nil {
		return nil, err
	}

	questions := make([]model.Question, len(summaries))
	for i, s := range summaries {
		questions[i] = model.Question{
			ID:             s.QuestionName,
			MaxPoints:      s.MaxPoints,
			MaxManualPoint: s.MaxManualPoints,
		}
	}
	return questions, nil
}

// InstanceLog fetches and decodes one instance's grading log. Entries
// with an unrecognized event name are kept as KindOther so the scanner
// can skip them; entries of a scoring kind missing their required fields
// are a malformed-event error.
func (c *Course) InstanceLog(ctx context.Context, instanceID int64) ([]model.Event, error) {
	var entries []logEntry
	endpoint := fmt.Sprintf("/course_instances/%s/assessment_instances/%d/log", c.id, instanceID)
	if err := c.client.Get(ctx, endpoint, &entries); err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(entries))
	for _, entry := range entries {
		event, err := decodeLogEntry(entry)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func decodeLogEntry(entry logEntry) (model.Event, error) {
	ts, err := time.Parse(time.RFC3339, entry.DateISO)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: bad timestamp %q in %q event",
			scan.ErrMalformedEvent, entry.DateISO, entry.EventName)
	}

	event := model.Event{
		Timestamp:  ts,
		Actor:      entry.AuthUserUID,
		QuestionID: entry.QID,
	}

	switch entry.EventName {
	case model.KindScoreAssessment.String():
		if entry.Data.Points == nil {
			return model.Event{}, fmt.Errorf("%w: score assessment without points at %s",
				scan.ErrMalformedEvent, entry.DateISO)
		}
		event.Kind = model.KindScoreAssessment
		event.Points = *entry.Data.Points

	case model.KindScoreQuestion.String():
		if entry.Data.Points == nil {
			return model.Event{}, fmt.Errorf("%w: score question without points at %s",
				scan.ErrMalformedEvent, entry.DateISO)
		}
		event.Kind = model.KindScoreQuestion
		event.Points = *entry.Data.Points

	case model.KindManualGradingResult.String():
		if entry.Data.ManualPoints == nil {
			return model.Event{}, fmt.Errorf("%w: manual grading result without manual points at %s",
				scan.ErrMalformedEvent, entry.DateISO)
		}
		event.Kind = model.KindManualGradingResult
		event.Points = *entry.Data.ManualPoints

	case model.KindSubmission.String():
		event.Kind = model.KindSubmission

	default:
		event.Kind = model.KindOther
	}

	return event, nil
}

// GradebookScores returns each student's reported percentage for the
// assessment. Exam-type assessments take this shortcut path: the
// gradebook already reports a final percentage, so the log is never
// replayed.
func (c *Course) GradebookScores(ctx context.Context, assessmentID int64) (map[string]float64, error) {
	var rows []gradebookRow
	endpoint := fmt.Sprintf("/course_instances/%s/gradebook", c.id)
	if err := c.client.Get(ctx, endpoint, &rows); err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(rows))
	for _, row := range rows {
		for _, a := range row.Assessments {
			if a.AssessmentID == assessmentID {
				scores[row.UserUID] = a.ScorePerc
				break
			}
		}
	}
	return scores, nil
}
