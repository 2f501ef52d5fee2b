package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"autosort/internal/organizer"
	"autosort/internal/pipeline"
)

// ErrRunNotFound is returned when a run id has no journal entry.
var ErrRunNotFound = errors.New("run not found")

// Store records runs and per-file outcomes.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Run is one journaled pipeline run.
type Run struct {
	ID          string
	SourceDir   string
	StartedAt   time.Time
	FinishedAt  time.Time
	Attempted   int
	Succeeded   int
	Failed      int
	Fallbacks   int
	Skipped     int
	SetupErrors string
}

// Entry is one journaled file outcome.
type Entry struct {
	RunID      string
	Category   string
	Original   string
	Final      string
	Label      string
	Fallback   bool
	Success    bool
	Collisions int
	Error      string
	RecordedAt time.Time
}

// Open creates or opens the journal database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts the run row so outcomes can reference it.
func (s *Store) BeginRun(ctx context.Context, runID, sourceDir string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_dir, started_at) VALUES (?, ?, ?)`,
		runID, sourceDir, formatTime(startedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordOutcome appends one file outcome to runID.
func (s *Store) RecordOutcome(ctx context.Context, runID string, out organizer.Outcome) error {
	var errMsg any
	if out.Err != nil {
		errMsg = out.Err.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (
            run_id, category, original_path, final_path, label,
            fallback, success, collisions, error_message, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		string(out.Category),
		out.Original,
		nullableString(out.Final),
		nullableString(out.Label),
		boolToInt(out.Fallback),
		boolToInt(out.Success),
		out.Collisions,
		errMsg,
		formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// FinishRun stores the summary counters on the run row.
func (s *Store) FinishRun(ctx context.Context, summary pipeline.Summary) error {
	totals := summary.Totals()
	var setupErrs []string
	for _, c := range summary.Categories {
		if c.SetupErr != nil {
			setupErrs = append(setupErrs, fmt.Sprintf("%s: %v", c.Category, c.SetupErr))
		}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, attempted = ?, succeeded = ?, failed = ?,
            fallbacks = ?, skipped = ?, setup_errors = ? WHERE id = ?`,
		formatTime(summary.FinishedAt),
		totals.Attempted,
		totals.Succeeded,
		totals.Failed,
		totals.Fallbacks,
		totals.Skipped,
		nullableString(strings.Join(setupErrs, "; ")),
		summary.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, summary.RunID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_dir, started_at, finished_at, attempted, succeeded,
            failed, fallbacks, skipped, setup_errors
         FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			started   string
			finished  sql.NullString
			setupErrs sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.SourceDir, &started, &finished,
			&r.Attempted, &r.Succeeded, &r.Failed, &r.Fallbacks, &r.Skipped, &setupErrs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished.String)
		r.SetupErrors = setupErrs.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Entries returns the outcomes recorded for runID in the order they were
// written.
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM runs WHERE id = ?", runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, category, original_path, final_path, label, fallback,
            success, collisions, error_message, recorded_at
         FROM outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                    Entry
			final, label, errMsg sql.NullString
			fallback, success    int
			recorded             string
		)
		if err := rows.Scan(&e.RunID, &e.Category, &e.Original, &final, &label,
			&fallback, &success, &e.Collisions, &errMsg, &recorded); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		e.Final = final.String
		e.Label = label.String
		e.Error = errMsg.String
		e.Fallback = fallback != 0
		e.Success = success != 0
		e.RecordedAt = parseTime(recorded)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
