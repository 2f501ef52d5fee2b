package organizer_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"autosort/internal/classify"
	"autosort/internal/organizer"
	"autosort/internal/pathalloc"
	"autosort/internal/services"
	"autosort/internal/testsupport"
)

func setup(t *testing.T, names ...string) (src, dest string) {
	t.Helper()
	base := t.TempDir()
	src = filepath.Join(base, "inbox")
	dest = filepath.Join(base, "inbox", "Images")
	testsupport.Touch(t, src, names...)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	return src, dest
}

func entry(src, name string) classify.FileEntry {
	return classify.FileEntry{
		Path: filepath.Join(src, name),
		Name: name,
		Ext:  filepath.Ext(name),
		Tag:  classify.TagImage,
	}
}

func TestProcessMovesWithSanitizedLabel(t *testing.T) {
	src, dest := setup(t, "IMG_0001.jpg")
	d := &testsupport.StubDescriber{Default: "A dog: on a beach?"}
	w := organizer.NewWorker(d, pathalloc.NewRegistry())

	out := w.Process(context.Background(), entry(src, "IMG_0001.jpg"), dest)
	if !out.Success || out.Err != nil {
		t.Fatalf("expected success, got %+v", out)
	}
	if want := filepath.Join(dest, "A_dog_on_a_beach.jpg"); out.Final != want {
		t.Fatalf("final = %q, want %q", out.Final, want)
	}
	if _, err := os.Stat(out.Original); !os.IsNotExist(err) {
		t.Fatal("source should be gone after move")
	}
	if _, err := os.Stat(out.Final); err != nil {
		t.Fatalf("final missing: %v", err)
	}
	if calls := d.Calls(); len(calls) != 1 || calls[0] != out.Original {
		t.Fatalf("describe calls = %v", calls)
	}
}

func TestProcessUsesFallbackWhenDescribeFails(t *testing.T) {
	src, dest := setup(t, "x.png")
	d := &testsupport.StubDescriber{Err: errors.New("model offline"), FallbackFunc: func(error) string { return "unnamed_image_1" }}
	w := organizer.NewWorker(d, pathalloc.NewRegistry())

	out := w.Process(context.Background(), entry(src, "x.png"), dest)
	if !out.Success {
		t.Fatalf("expected success with fallback, got %+v", out)
	}
	if !out.Fallback || !errors.Is(out.DescribeCause, services.ErrDescribe) {
		t.Fatalf("expected fallback with describe cause, got %+v", out)
	}
	if want := filepath.Join(dest, "unnamed_image_1.png"); out.Final != want {
		t.Fatalf("final = %q, want %q", out.Final, want)
	}
}

func TestProcessSameLabelGetsSuffix(t *testing.T) {
	src, dest := setup(t, "a.jpg", "b.jpg", "c.jpg")
	testsupport.Touch(t, dest, "sunset.jpg")
	d := &testsupport.StubDescriber{Default: "sunset"}
	w := organizer.NewWorker(d, pathalloc.NewRegistry())

	var finals []string
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		out := w.Process(context.Background(), entry(src, name), dest)
		if !out.Success {
			t.Fatalf("process %s: %+v", name, out)
		}
		finals = append(finals, filepath.Base(out.Final))
	}
	want := []string{"sunset_1.jpg", "sunset_2.jpg", "sunset_3.jpg"}
	for i := range want {
		if finals[i] != want[i] {
			t.Fatalf("finals = %v, want %v", finals, want)
		}
	}
}

func TestProcessMoveFailureLeavesSource(t *testing.T) {
	src, dest := setup(t, "a.jpg")
	registry := pathalloc.NewRegistry()
	d := &testsupport.StubDescriber{Default: "label"}
	w := organizer.NewWorker(d, registry, organizer.WithMover(func(string, string) error {
		return fs.ErrPermission
	}))

	out := w.Process(context.Background(), entry(src, "a.jpg"), dest)
	if out.Success {
		t.Fatal("expected failure")
	}
	if !errors.Is(out.Err, services.ErrMove) || !errors.Is(out.Err, fs.ErrPermission) {
		t.Fatalf("unexpected error %v", out.Err)
	}
	if _, err := os.Stat(out.Original); err != nil {
		t.Fatalf("source should remain: %v", err)
	}
	if n := registry.For(dest).Reserved(); n != 0 {
		t.Fatalf("expected reservation released, %d held", n)
	}
}

func TestProcessRetriesAfterCollision(t *testing.T) {
	src, dest := setup(t, "a.jpg")
	calls := 0
	mover := func(from, to string) error {
		calls++
		if calls == 1 {
			// Another writer claims the name between allocation and move.
			testsupport.Touch(t, dest, filepath.Base(to))
			return &os.LinkError{Op: "renameat2", Old: from, New: to, Err: fs.ErrExist}
		}
		return os.Rename(from, to)
	}
	w := organizer.NewWorker(&testsupport.StubDescriber{Default: "cat"}, pathalloc.NewRegistry(), organizer.WithMover(mover))

	out := w.Process(context.Background(), entry(src, "a.jpg"), dest)
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.Collisions != 1 || filepath.Base(out.Final) != "cat_1.jpg" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestProcessCollisionRetriesBounded(t *testing.T) {
	src, dest := setup(t, "a.jpg")
	calls := 0
	mover := func(string, string) error {
		calls++
		return fmt.Errorf("rename: %w", fs.ErrExist)
	}
	w := organizer.NewWorker(&testsupport.StubDescriber{Default: "cat"}, pathalloc.NewRegistry(), organizer.WithMover(mover))

	out := w.Process(context.Background(), entry(src, "a.jpg"), dest)
	if out.Success {
		t.Fatal("expected failure")
	}
	if !errors.Is(out.Err, services.ErrAllocation) || !errors.Is(out.Err, services.ErrCollision) {
		t.Fatalf("unexpected error %v", out.Err)
	}
	if calls != 32 {
		t.Fatalf("expected 32 move attempts, got %d", calls)
	}
}

func TestProcessCancelledSkipsMove(t *testing.T) {
	src, dest := setup(t, "a.jpg")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	moved := false
	w := organizer.NewWorker(&testsupport.StubDescriber{Default: "cat"}, pathalloc.NewRegistry(),
		organizer.WithMover(func(string, string) error { moved = true; return nil }))

	out := w.Process(ctx, entry(src, "a.jpg"), dest)
	if out.Success || moved {
		t.Fatalf("expected no move after cancellation, got %+v", out)
	}
}
