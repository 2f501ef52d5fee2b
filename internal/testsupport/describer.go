package testsupport

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// StubDescriber is a configurable describer for pipeline tests. Labels are
// looked up by base filename; missing entries use Default. It records the
// peak number of concurrent Describe calls.
type StubDescriber struct {
	Labels       map[string]string
	Errors       map[string]error
	Default      string
	Err          error
	Delay        time.Duration
	FallbackFunc func(error) string

	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	calls    []string
}

// Describe returns the configured label or error for path.
func (s *StubDescriber) Describe(ctx context.Context, path string) (string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, path)
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	name := filepath.Base(path)
	if err, ok := s.Errors[name]; ok {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}
	if label, ok := s.Labels[name]; ok {
		return label, nil
	}
	return s.Default, nil
}

// Fallback returns FallbackFunc(cause) or "fallback".
func (s *StubDescriber) Fallback(cause error) string {
	if s.FallbackFunc != nil {
		return s.FallbackFunc(cause)
	}
	return "fallback"
}

// Peak reports the highest number of concurrent Describe calls observed.
func (s *StubDescriber) Peak() int {
	return int(s.peak.Load())
}

// Calls returns the paths passed to Describe, in call order.
func (s *StubDescriber) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
