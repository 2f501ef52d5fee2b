package journal_test

import (
	"context"
	"os"
	"testing"
)

type labelDescriber string

func (l labelDescriber) Describe(context.Context, string) (string, error) { return string(l), nil }

func (l labelDescriber) Fallback(error) string { return "fallback" }

func writeEmpty(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
