package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"autosort/internal/classify"
	"autosort/internal/describe"
	"autosort/internal/logging"
	"autosort/internal/organizer"
	"autosort/internal/pathalloc"
	"autosort/internal/services"
)

// DefaultMaxWorkers is the per-category pool size used when the caller
// passes a non-positive value.
const DefaultMaxWorkers = 2

// Recorder persists run history. BeginRun is called once classification
// succeeds, RecordOutcome as each file completes and FinishRun with the
// final summary. Recorder failures are logged and never fail the run.
type Recorder interface {
	BeginRun(ctx context.Context, runID, sourceDir string, startedAt time.Time) error
	RecordOutcome(ctx context.Context, runID string, out organizer.Outcome) error
	FinishRun(ctx context.Context, summary Summary) error
}

// Observer receives each outcome as it completes, for example to update
// metrics. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveOutcome(out organizer.Outcome)
}

type runOptions struct {
	runID         string
	describers    map[classify.Tag]describe.Describer
	recorder      Recorder
	observer      Observer
	logger        *slog.Logger
	timeout       time.Duration
	maxNameLength int
	now           func() time.Time
}

// Option customizes a Run.
type Option func(*runOptions)

// WithDescriber assigns the describer used for one category.
func WithDescriber(tag classify.Tag, d describe.Describer) Option {
	return func(o *runOptions) { o.describers[tag] = d }
}

// WithRecorder persists outcomes as they complete.
func WithRecorder(r Recorder) Option {
	return func(o *runOptions) { o.recorder = r }
}

// WithObserver reports outcomes as they complete.
func WithObserver(obs Observer) Option {
	return func(o *runOptions) { o.observer = obs }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *runOptions) { o.logger = logger }
}

// WithDescribeTimeout bounds each describe call.
func WithDescribeTimeout(timeout time.Duration) Option {
	return func(o *runOptions) { o.timeout = timeout }
}

// WithMaxNameLength bounds sanitized stems.
func WithMaxNameLength(n int) Option {
	return func(o *runOptions) { o.maxNameLength = n }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *runOptions) { o.runID = id }
}

// Run classifies sourceDir against rules and organizes every matched file.
// Only classification failures (a missing source directory) are returned as
// errors; everything else is reported through the Summary.
func Run(ctx context.Context, sourceDir string, rules []classify.Rule, maxWorkers int, opts ...Option) (Summary, error) {
	o := runOptions{
		describers: make(map[classify.Tag]describe.Describer),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	ctx = services.WithRunID(ctx, o.runID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(o.logger, "pipeline"))

	summary := Summary{RunID: o.runID, SourceDir: sourceDir, StartedAt: o.now()}

	cls, err := classify.Classify(ctx, sourceDir, rules)
	if err != nil {
		return summary, err
	}
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source", sourceDir),
		logging.Int("files", cls.Total()),
		logging.Int("categories", len(cls.Batches)),
		logging.Int("max_workers", maxWorkers),
	)

	if o.recorder != nil {
		if err := o.recorder.BeginRun(ctx, o.runID, cls.SourceDir, summary.StartedAt); err != nil {
			logger.Warn("journal unavailable for this run", logging.Error(err))
			o.recorder = nil
		}
	}

	registry := pathalloc.NewRegistry()
	summary.Categories = make([]CategorySummary, len(cls.Batches))

	var categories errgroup.Group
	for i, batch := range cls.Batches {
		categories.Go(func() error {
			summary.Categories[i] = runCategory(ctx, batch, maxWorkers, registry, &o, logger)
			return nil
		})
	}
	_ = categories.Wait()

	summary.FinishedAt = o.now()
	totals := summary.Totals()
	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("attempted", totals.Attempted),
		logging.Int("succeeded", totals.Succeeded),
		logging.Int("failed", totals.Failed),
		logging.Int("fallbacks", totals.Fallbacks),
		logging.Int("skipped", totals.Skipped),
		logging.Duration("duration", summary.Duration()),
	)
	if o.recorder != nil {
		if err := o.recorder.FinishRun(context.WithoutCancel(ctx), summary); err != nil {
			logger.Warn("journal write failed", logging.Error(err))
		}
	}
	return summary, nil
}

func runCategory(
	ctx context.Context,
	batch classify.Batch,
	maxWorkers int,
	registry *pathalloc.Registry,
	o *runOptions,
	parent *slog.Logger,
) CategorySummary {
	tag := batch.Rule.Tag
	ctx = services.WithCategory(ctx, string(tag))
	logger := logging.WithContext(ctx, parent)

	cs := CategorySummary{Category: tag, Destination: batch.Rule.Destination}

	setupErr := batch.SetupErr
	d := o.describers[tag]
	if setupErr == nil && d == nil {
		setupErr = services.Wrap(services.ErrConfiguration, "pipeline", "describer",
			fmt.Sprintf("no describer for category %q", tag), nil)
	}
	if setupErr != nil {
		cs.SetupErr = setupErr
		cs.Skipped = len(batch.Entries)
		logger.Error("category skipped",
			logging.String(logging.FieldEventType, "category_setup_failed"),
			logging.String("destination", batch.Rule.Destination),
			logging.Int("skipped", cs.Skipped),
			logging.Error(setupErr),
		)
		return cs
	}

	worker := organizer.NewWorker(d, registry,
		organizer.WithDescribeTimeout(o.timeout),
		organizer.WithMaxNameLength(o.maxNameLength),
		organizer.WithLogger(o.logger),
	)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	skip := func() {
		mu.Lock()
		cs.Skipped++
		mu.Unlock()
	}
	g.SetLimit(maxWorkers)
	for _, entry := range batch.Entries {
		if ctx.Err() != nil {
			skip()
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				skip()
				return nil
			}
			out := worker.Process(ctx, entry, batch.Rule.Destination)
			if o.observer != nil {
				o.observer.ObserveOutcome(out)
			}
			if o.recorder != nil {
				if err := o.recorder.RecordOutcome(context.WithoutCancel(ctx), o.runID, out); err != nil {
					logger.Warn("journal write failed", logging.String("file", out.Original), logging.Error(err))
				}
			}
			mu.Lock()
			cs.add(out)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("category finished",
		logging.String(logging.FieldEventType, "category_complete"),
		logging.Int("attempted", cs.Attempted),
		logging.Int("succeeded", cs.Succeeded),
		logging.Int("failed", cs.Failed),
		logging.Int("skipped", cs.Skipped),
	)
	return cs
}
