package describe

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"autosort/internal/services"
)

// Describer derives a label from a file's content.
type Describer interface {
	// Describe returns a non-empty label for path.
	Describe(ctx context.Context, path string) (string, error)
	// Fallback returns the label to use when Describe fails with cause.
	Fallback(cause error) string
}

// Result is the outcome of a guarded describe call.
type Result struct {
	Label    string
	Fallback bool
	Cause    error
	Elapsed  time.Duration
}

// Counter numbers fallback labels within one run. Safe for concurrent use.
type Counter struct {
	n atomic.Int64
}

// Next returns the next value, starting at 1.
func (c *Counter) Next() int64 {
	return c.n.Add(1)
}

// Value reports how many numbers have been handed out.
func (c *Counter) Value() int64 {
	return c.n.Load()
}

// Label runs d.Describe for path with timeout (no limit when timeout <= 0).
// Failures, timeouts, panics and blank labels resolve to d.Fallback; the
// returned Result is always usable. Label does not return before Describe
// does, so a describer that ignores ctx keeps occupying its caller's worker
// slot until it finishes.
func Label(ctx context.Context, d Describer, path string, timeout time.Duration) Result {
	start := time.Now()
	label, err := guardedDescribe(ctx, d, path, timeout)
	if err == nil {
		if label = strings.TrimSpace(label); label == "" {
			err = services.Wrap(services.ErrDescribe, "describe", "label", "empty label", nil)
		}
	}
	if err == nil {
		return Result{Label: label, Elapsed: time.Since(start)}
	}
	return Result{
		Label:    fallbackLabel(d, err),
		Fallback: true,
		Cause:    err,
		Elapsed:  time.Since(start),
	}
}

type describeReply struct {
	label string
	err   error
}

func guardedDescribe(ctx context.Context, d Describer, path string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reply := make(chan describeReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reply <- describeReply{err: services.Wrap(services.ErrDescribe, "describe", "panic", fmt.Sprint(r), nil)}
			}
		}()
		label, err := d.Describe(ctx, path)
		reply <- describeReply{label: label, err: err}
	}()

	select {
	case r := <-reply:
		if r.err != nil {
			return "", services.Wrap(services.ErrDescribe, "describe", "content", path, r.err)
		}
		return r.label, nil
	case <-ctx.Done():
		cause := ctx.Err()
		marker := services.ErrTimeout
		if cause == context.Canceled {
			marker = services.ErrDescribe
		}
		// Hold the caller until Describe returns; the late answer is dropped.
		<-reply
		return "", services.Wrap(marker, "describe", "wait", path, cause)
	}
}

// fallbackLabel calls d.Fallback, shielding callers from a panicking
// implementation.
func fallbackLabel(d Describer, cause error) (label string) {
	defer func() {
		if r := recover(); r != nil {
			label = ""
		}
	}()
	return strings.TrimSpace(d.Fallback(cause))
}
