package model

import "fmt"

// AssessmentType selects how an assessment is graded.
type AssessmentType string

// Assessment types known to the platform.
const (
	TypeHomework AssessmentType = "Homework"
	TypeExam     AssessmentType = "Exam"
)

// ParseAssessmentType validates a platform type string.
func ParseAssessmentType(s string) (AssessmentType, error) {
	switch AssessmentType(s) {
	case TypeHomework, TypeExam:
		return AssessmentType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAssessmentType, s)
	}
}

// Assessment identifies one assessment of a course instance.
type Assessment struct {
	ID   int64
	Name string
	Type AssessmentType
}

// Question describes one question of an assessment instance.
type Question struct {
	ID             string
	MaxPoints      float64
	MaxManualPoint float64
}

// ManuallyGraded reports whether the question carries manually graded
// points.
func (q Question) ManuallyGraded() bool {
	return q.MaxManualPoint > 0
}

// TotalPoints sums the maximum points over a question set.
func TotalPoints(questions []Question) float64 {
	var total float64
	for _, q := range questions {
		total += q.MaxPoints
	}
	return total
}
