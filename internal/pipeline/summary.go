package pipeline

import (
	"time"

	"autosort/internal/classify"
	"autosort/internal/organizer"
)

// Failure pairs a file left in place with the reason.
type Failure struct {
	Path string
	Err  error
}

// CategorySummary tracks counters for a single category. Succeeded + Failed
// always equals Attempted; Skipped counts files never attempted.
type CategorySummary struct {
	Category    classify.Tag
	Destination string
	Attempted   int
	Succeeded   int
	Failed      int
	Fallbacks   int
	Skipped     int
	Failures    []Failure
	SetupErr    error
	Outcomes    []organizer.Outcome
}

func (c *CategorySummary) add(out organizer.Outcome) {
	c.Attempted++
	c.Outcomes = append(c.Outcomes, out)
	if out.Fallback {
		c.Fallbacks++
	}
	if out.Success {
		c.Succeeded++
		return
	}
	c.Failed++
	c.Failures = append(c.Failures, Failure{Path: out.Original, Err: out.Err})
}

// Summary is the result of one pipeline run. Categories keep rule order.
type Summary struct {
	RunID      string
	SourceDir  string
	StartedAt  time.Time
	FinishedAt time.Time
	Categories []CategorySummary
}

// Totals aggregates every category's counters. Failures are concatenated
// in category order; Outcomes are omitted.
func (s Summary) Totals() CategorySummary {
	var t CategorySummary
	for _, c := range s.Categories {
		t.Attempted += c.Attempted
		t.Succeeded += c.Succeeded
		t.Failed += c.Failed
		t.Fallbacks += c.Fallbacks
		t.Skipped += c.Skipped
		t.Failures = append(t.Failures, c.Failures...)
	}
	return t
}

// Category returns the summary for tag, if that category had files.
func (s Summary) Category(tag classify.Tag) (CategorySummary, bool) {
	for _, c := range s.Categories {
		if c.Category == tag {
			return c, true
		}
	}
	return CategorySummary{}, false
}

// HasFailures reports whether any file failed or any category could not be
// set up.
func (s Summary) HasFailures() bool {
	for _, c := range s.Categories {
		if c.Failed > 0 || c.SetupErr != nil {
			return true
		}
	}
	return false
}

// Duration reports the wall time of the run.
func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
