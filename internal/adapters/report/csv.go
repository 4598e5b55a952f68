// Package report serializes batch outcomes to CSV and reads them back.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/courseops/regrade/internal/domain/model"
)

// gradeHeader is the homework-path column set, one row per retained
// student. Window fields are empty when the window had no qualifying
// event.
var gradeHeader = []string{
	"uid", "points", "orig_points", "orig_date",
	"makeup_points", "makeup_date", "total_points",
}

// examHeader is the exam shortcut column set.
var examHeader = []string{"uid", "score_perc"}

// WriteGrades writes one row per final grade.
func WriteGrades(w io.Writer, grades []model.FinalGrade) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(gradeHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, g := range grades {
		rec := g.Record
		row := []string{
			g.UID,
			formatPoints(g.Points),
			formatScorePoints(rec.Orig),
			formatScoreDate(rec.Orig),
			formatScorePoints(rec.Makeup),
			formatScoreDate(rec.Makeup),
			formatPoints(rec.TotalPoints),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", g.UID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteGradesFile writes the grades CSV to path, truncating any existing
// file.
func WriteGradesFile(path string, grades []model.FinalGrade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteGrades(f, grades); err != nil {
		return err
	}
	return f.Close()
}

// WriteExamScores writes the exam shortcut rows.
func WriteExamScores(w io.Writer, scores []model.ExamScore) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(examHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range scores {
		if err := cw.Write([]string{s.UID, formatPoints(s.ScorePerc)}); err != nil {
			return fmt.Errorf("write row for %s: %w", s.UID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteExamScoresFile writes the exam CSV to path.
func WriteExamScoresFile(path string, scores []model.ExamScore) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteExamScores(f, scores); err != nil {
		return err
	}
	return f.Close()
}

// ReadGrades parses a grades CSV back into final grades, reproducing
// points exactly.
func ReadGrades(r io.Reader) ([]model.FinalGrade, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(gradeHeader) {
		return nil, fmt.Errorf("%w: unexpected header %v", ErrMalformedRow, header)
	}

	var grades []model.FinalGrade
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return grades, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		grade, err := parseGradeRow(row)
		if err != nil {
			return nil, err
		}
		grades = append(grades, grade)
	}
}

func parseGradeRow(row []string) (model.FinalGrade, error) {
	if len(row) != len(gradeHeader) {
		return model.FinalGrade{}, fmt.Errorf("%w: %v", ErrMalformedRow, row)
	}

	points, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return model.FinalGrade{}, fmt.Errorf("%w: points %q", ErrMalformedRow, row[1])
	}
	total, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return model.FinalGrade{}, fmt.Errorf("%w: total points %q", ErrMalformedRow, row[6])
	}

	orig, err := parseScore(row[2], row[3])
	if err != nil {
		return model.FinalGrade{}, err
	}
	makeup, err := parseScore(row[4], row[5])
	if err != nil {
		return model.FinalGrade{}, err
	}

	return model.FinalGrade{
		UID:    row[0],
		Points: points,
		Record: model.ScoreRecord{
			UID:         row[0],
			Orig:        orig,
			Makeup:      makeup,
			TotalPoints: total,
		},
	}, nil
}

func parseScore(points, date string) (*model.Score, error) {
	if points == "" {
		return nil, nil
	}

	p, err := strconv.ParseFloat(points, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: window points %q", ErrMalformedRow, points)
	}
	at, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return nil, fmt.Errorf("%w: window date %q", ErrMalformedRow, date)
	}
	return &model.Score{Points: p, At: at}, nil
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatScorePoints(s *model.Score) string {
	if s == nil {
		return ""
	}
	return formatPoints(s.Points)
}

func formatScoreDate(s *model.Score) string {
	if s == nil {
		return ""
	}
	return s.At.Format(time.RFC3339Nano)
}
