package organizer

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"autosort/internal/classify"
	"autosort/internal/describe"
	"autosort/internal/fileutil"
	"autosort/internal/logging"
	"autosort/internal/pathalloc"
	"autosort/internal/services"
	"autosort/internal/textutil"
)

// maxCollisionRetries bounds how often a move may lose the race for a
// freshly allocated name before the file is reported as failed.
const maxCollisionRetries = 32

// Outcome records what happened to one file.
type Outcome struct {
	Original      string
	Final         string
	Category      classify.Tag
	Label         string
	Fallback      bool
	DescribeCause error
	DescribeTime  time.Duration
	Collisions    int
	Success       bool
	Err           error
}

// Worker performs describe, sanitize, allocate and move for single files.
// It is safe for concurrent use.
type Worker struct {
	describer     describe.Describer
	registry      *pathalloc.Registry
	move          func(src, dst string) error
	timeout       time.Duration
	maxNameLength int
	logger        *slog.Logger
}

// Option customizes a Worker.
type Option func(*Worker)

// WithDescribeTimeout bounds each describe call.
func WithDescribeTimeout(timeout time.Duration) Option {
	return func(w *Worker) { w.timeout = timeout }
}

// WithMaxNameLength bounds the sanitized stem length in runes. Non-positive
// values keep the default.
func WithMaxNameLength(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.maxNameLength = n
		}
	}
}

// WithLogger sets the worker logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logging.NewComponentLogger(logger, "organizer") }
}

// WithMover overrides the no-replace move (used in tests).
func WithMover(move func(src, dst string) error) Option {
	return func(w *Worker) {
		if move != nil {
			w.move = move
		}
	}
}

// NewWorker returns a worker that labels files with describer and reserves
// destination paths through registry.
func NewWorker(describer describe.Describer, registry *pathalloc.Registry, opts ...Option) *Worker {
	w := &Worker{
		describer:     describer,
		registry:      registry,
		move:          fileutil.MoveNoReplace,
		maxNameLength: textutil.DefaultMaxStemLength,
		logger:        logging.NewComponentLogger(nil, "organizer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.registry == nil {
		w.registry = pathalloc.NewRegistry()
	}
	return w
}

// Process labels entry and moves it into destination. The returned Outcome
// always describes the result; Process never panics on describer failures.
func (w *Worker) Process(ctx context.Context, entry classify.FileEntry, destination string) Outcome {
	ctx = services.WithFile(services.WithStage(ctx, "organize"), entry.Path)
	logger := logging.WithContext(ctx, w.logger)

	out := Outcome{Original: entry.Path, Category: entry.Tag}

	res := describe.Label(ctx, w.describer, entry.Path, w.timeout)
	out.Label, out.Fallback, out.DescribeCause, out.DescribeTime = res.Label, res.Fallback, res.Cause, res.Elapsed
	if res.Fallback {
		logger.Warn("describe failed; using fallback label",
			logging.String(logging.FieldEventType, "describe_fallback"),
			logging.String("label", res.Label),
			logging.Error(res.Cause),
		)
	}
	if err := ctx.Err(); err != nil {
		out.Err = services.Wrap(services.ErrMove, "organize", "cancelled", "run cancelled before move", err)
		return out
	}

	name := textutil.SanitizeStem(res.Label, w.maxNameLength) + entry.Ext

	for attempt := 0; ; attempt++ {
		target, err := w.registry.Allocate(destination, name)
		if err != nil {
			out.Err = err
			break
		}
		err = w.move(entry.Path, target)
		if err == nil {
			out.Final = target
			out.Success = true
			break
		}
		w.registry.Release(target)
		if !errors.Is(err, fs.ErrExist) {
			out.Err = services.Wrap(services.ErrMove, "organize", "move", target, err)
			break
		}
		out.Collisions++
		logger.Debug("destination appeared during move; allocating again", logging.String("target", target))
		if attempt+1 >= maxCollisionRetries {
			out.Err = services.Wrap(services.ErrAllocation, "organize", "allocate", "collision retries exhausted",
				services.Wrap(services.ErrCollision, "organize", "move", target, err))
			break
		}
	}

	if out.Success {
		logger.Info("file organized",
			logging.String(logging.FieldEventType, "file_moved"),
			logging.String("dest", out.Final),
			logging.Bool("fallback", out.Fallback),
		)
	} else {
		logger.Error("file left in place",
			logging.String(logging.FieldEventType, "file_failed"),
			logging.Error(out.Err),
		)
	}
	return out
}
