package platform

import (
	"context"
	"fmt"
	"strconv"

	"github.com/courseops/regrade/internal/domain/model"
)

// Course binds the client to one course instance and exposes the typed
// read operations the reconstruction needs.
type Course struct {
	client *Client
	id     string
}

// NewCourse creates a Course for the given course instance id.
func NewCourse(client *Client, courseInstanceID string) *Course {
	return &Course{client: client, id: courseInstanceID}
}

type assessmentSummary struct {
	AssessmentID   int64  `json:"assessment_id"`
	AssessmentName string `json:"assessment_name"`
}

type assessmentInfo struct {
	Type string `json:"type"`
}

type instanceSummary struct {
	UserUID              string `json:"user_uid"`
	AssessmentInstanceID int64  `json:"assessment_instance_id"`
}

// ListAssessments returns the id/name pairs of the course's assessments.
// Type is not part of the listing and is resolved per assessment.
func (c *Course) ListAssessments(ctx context.Context) ([]model.Assessment, error) {
	var summaries []assessmentSummary
	endpoint := fmt.Sprintf("/course_instances/%s/assessments", c.id)
	if err := c.client.Get(ctx, endpoint, &summaries); err != nil {
		return nil, err
	}

	assessments := make([]model.Assessment, len(summaries))
	for i, s := range summaries {
		assessments[i] = model.Assessment{ID: s.AssessmentID, Name: s.AssessmentName}
	}
	return assessments, nil
}

// Resolve matches a selector, either an assessment name or a stringified
// id, against the course's assessments.
func (c *Course) Resolve(ctx context.Context, selector string) (int64, error) {
	assessments, err := c.ListAssessments(ctx)
	if err != nil {
		return 0, err
	}

	for _, a := range assessments {
		if selector == a.Name || selector == strconv.FormatInt(a.ID, 10) {
			return a.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAssessment, selector)
}

// AssessmentType fetches and validates the assessment's type.
func (c *Course) AssessmentType(ctx context.Context, assessmentID int64) (model.AssessmentType, error) {
	var info assessmentInfo
	endpoint := fmt.Sprintf("/course_instances/%s/assessments/%d", c.id, assessmentID)
	if err := c.client.Get(ctx, endpoint, &info); err != nil {
		return "", err
	}
	return model.ParseAssessmentType(info.Type)
}

// Instances maps each student uid to their assessment instance id.
func (c *Course) Instances(ctx context.Context, assessmentID int64) (map[string]int64, error) {
	var summaries []instanceSummary
	endpoint := fmt.Sprintf("/course_instances/%s/assessments/%d/assessment_instances", c.id, assessmentID)
	if err := c.client.Get(ctx, endpoint, &summaries); err != nil {
		return nil, err
	}

	instances := make(map[string]int64, len(summaries))
	for _, s := range summaries {
		instances[s.UserUID] = s.AssessmentInstanceID
	}
	return instances, nil
}
