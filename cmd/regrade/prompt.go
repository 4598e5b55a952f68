package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/courseops/regrade/internal/adapters/platform"
)

// promptTimeFormat is the format operators type deadline overrides in.
const (
	promptTimeFormat  = "2006-01-02 15:04:05"
	promptTimeDisplay = "YYYY-MM-DD HH:MM:SS"
)

// stdinConfirmer lets the operator accept or override a computed
// deadline on the terminal. Typing Y keeps the computed instant; an
// override keeps the computed instant's location.
type stdinConfirmer struct {
	in  io.Reader
	out io.Writer
}

func newStdinConfirmer() *stdinConfirmer {
	return &stdinConfirmer{in: os.Stdin, out: os.Stdout}
}

func (c *stdinConfirmer) Confirm(ctx context.Context, label string, t time.Time) (time.Time, error) {
	fmt.Fprintf(c.out, "%s is %s. Is this correct?\n(Enter 'Y' or a new time in the format [%s]):\n",
		label, t.Format(promptTimeFormat), promptTimeDisplay)

	scanner := bufio.NewScanner(c.in)
	for {
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return time.Time{}, err
			}
			return time.Time{}, fmt.Errorf("input closed while confirming %s", label)
		}

		input := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(input, "y") {
			return t, nil
		}

		override, err := time.ParseInLocation(promptTimeFormat, input, t.Location())
		if err != nil {
			fmt.Fprintf(c.out, "Invalid format. Please enter a valid date in the format [%s]\n", promptTimeDisplay)
			continue
		}
		fmt.Fprintf(c.out, "New %s: %s\n", label, override.Format(promptTimeFormat))
		return override, nil
	}
}

// chooseAssessment lists the course's assessments and prompts until the
// operator enters a known name or id.
func chooseAssessment(ctx context.Context, course *platform.Course, in io.Reader, out io.Writer) (string, error) {
	assessments, err := course.ListAssessments(ctx)
	if err != nil {
		return "", err
	}

	for _, a := range assessments {
		fmt.Fprintf(out, "id: %d, name: %s\n", a.ID, a.Name)
	}

	known := make(map[string]bool, 2*len(assessments))
	for _, a := range assessments {
		known[a.Name] = true
		known[fmt.Sprintf("%d", a.ID)] = true
	}

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprintln(out, "Enter the assessment (either name or id):")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("input closed while choosing an assessment")
		}

		selector := strings.TrimSpace(scanner.Text())
		if known[selector] {
			return selector, nil
		}
		fmt.Fprintln(out, "Invalid assessment name or id")
	}
}
