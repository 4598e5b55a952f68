package model

import "time"

// Score is a window-bounded best score together with the timestamp at
// which it was achieved.
type Score struct {
	Points float64
	At     time.Time
}

// ScoreRecord is the per-student result of replaying one instance's
// grading log against the two deadline windows. A nil window score means
// no qualifying event fell inside that window. Immutable once built.
type ScoreRecord struct {
	UID         string
	Orig        *Score
	Makeup      *Score
	TotalPoints float64
}

// FinalGrade is the blended, terminal result for one student.
type FinalGrade struct {
	UID    string
	Points float64
	Record ScoreRecord
}

// ExamScore is the gradebook-reported percentage used on the exam
// shortcut path.
type ExamScore struct {
	UID       string
	ScorePerc float64
}
