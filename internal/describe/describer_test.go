package describe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"autosort/internal/services"
)

type stubDescriber struct {
	label    string
	err      error
	panicMsg string
	block    bool
	fallback string
}

func (s stubDescriber) Describe(ctx context.Context, _ string) (string, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.label, s.err
}

func (s stubDescriber) Fallback(error) string { return s.fallback }

type stubbornDescriber struct{ release chan struct{} }

func (s stubbornDescriber) Describe(context.Context, string) (string, error) {
	<-s.release
	return "late", nil
}

func (stubbornDescriber) Fallback(error) string { return "too_slow" }

func TestLabelSuccess(t *testing.T) {
	res := Label(context.Background(), stubDescriber{label: "  a dog on a beach "}, "/x.jpg", time.Second)
	if res.Fallback || res.Cause != nil {
		t.Fatalf("unexpected fallback: %+v", res)
	}
	if res.Label != "a dog on a beach" {
		t.Fatalf("unexpected label %q", res.Label)
	}
}

func TestLabelFallbacks(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		d      Describer
		marker error
	}{
		{"error", stubDescriber{err: boom, fallback: "fb"}, services.ErrDescribe},
		{"empty label", stubDescriber{label: "   ", fallback: "fb"}, services.ErrDescribe},
		{"panic", stubDescriber{panicMsg: "kaboom", fallback: "fb"}, services.ErrDescribe},
		{"timeout", stubDescriber{block: true, fallback: "fb"}, services.ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Label(context.Background(), tt.d, "/x.jpg", 20*time.Millisecond)
			if !res.Fallback {
				t.Fatalf("expected fallback, got %+v", res)
			}
			if res.Label != "fb" {
				t.Fatalf("unexpected label %q", res.Label)
			}
			if !errors.Is(res.Cause, tt.marker) {
				t.Fatalf("expected cause marked %v, got %v", tt.marker, res.Cause)
			}
		})
	}
}

func TestLabelKeepsDescriberError(t *testing.T) {
	boom := errors.New("boom")
	res := Label(context.Background(), stubDescriber{err: boom, fallback: "fb"}, "/x", 0)
	if !errors.Is(res.Cause, boom) {
		t.Fatalf("expected original error in chain, got %v", res.Cause)
	}
}

func TestLabelTimeoutIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	const hold = 150 * time.Millisecond
	timer := time.AfterFunc(hold, func() { close(release) })
	defer timer.Stop()

	start := time.Now()
	res := Label(context.Background(), stubbornDescriber{release: release}, "/x", 20*time.Millisecond)
	elapsed := time.Since(start)
	if !res.Fallback || res.Label != "too_slow" {
		t.Fatalf("unexpected result %+v", res)
	}
	if !errors.Is(res.Cause, services.ErrTimeout) {
		t.Fatalf("expected timeout cause, got %v", res.Cause)
	}
	// The late "late" answer must not win, and Label must not hand the
	// caller's slot back while the describer is still running.
	if elapsed < hold {
		t.Fatalf("Label returned after %v, before the describer finished", elapsed)
	}
}

func TestCounterConcurrent(t *testing.T) {
	var c Counter
	const n = 100
	seen := make(chan int64, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]struct{}, n)
	for v := range seen {
		if v < 1 || v > n {
			t.Fatalf("counter value %d out of range", v)
		}
		unique[v] = struct{}{}
	}
	if len(unique) != n || c.Value() != n {
		t.Fatalf("expected %d unique values, got %d (value=%d)", n, len(unique), c.Value())
	}
}
