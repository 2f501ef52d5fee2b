package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"autosort/internal/pipeline"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type summaryJSON struct {
	RunID      string         `json:"run_id"`
	SourceDir  string         `json:"source_dir"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DurationMS int64          `json:"duration_ms"`
	Categories []categoryJSON `json:"categories"`
	Totals     categoryJSON   `json:"totals"`
}

type categoryJSON struct {
	Category    string        `json:"category,omitempty"`
	Destination string        `json:"destination,omitempty"`
	Attempted   int           `json:"attempted"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Fallbacks   int           `json:"fallbacks"`
	Skipped     int           `json:"skipped"`
	SetupError  string        `json:"setup_error,omitempty"`
	Moves       []moveJSON    `json:"moves,omitempty"`
	Failures    []failureJSON `json:"failures,omitempty"`
}

type moveJSON struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Fallback bool   `json:"fallback,omitempty"`
}

type failureJSON struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func newSummaryJSON(s pipeline.Summary) summaryJSON {
	out := summaryJSON{
		RunID:      s.RunID,
		SourceDir:  s.SourceDir,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		DurationMS: s.Duration().Milliseconds(),
		Categories: make([]categoryJSON, 0, len(s.Categories)),
		Totals:     newCategoryJSON(s.Totals()),
	}
	out.Totals.Failures = nil
	for _, c := range s.Categories {
		out.Categories = append(out.Categories, newCategoryJSON(c))
	}
	return out
}

func newCategoryJSON(c pipeline.CategorySummary) categoryJSON {
	out := categoryJSON{
		Category:    string(c.Category),
		Destination: c.Destination,
		Attempted:   c.Attempted,
		Succeeded:   c.Succeeded,
		Failed:      c.Failed,
		Fallbacks:   c.Fallbacks,
		Skipped:     c.Skipped,
	}
	if c.SetupErr != nil {
		out.SetupError = c.SetupErr.Error()
	}
	for _, o := range c.Outcomes {
		if o.Success {
			out.Moves = append(out.Moves, moveJSON{From: o.Original, To: o.Final, Fallback: o.Fallback})
		}
	}
	for _, f := range c.Failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		out.Failures = append(out.Failures, failureJSON{Path: f.Path, Error: msg})
	}
	return out
}
