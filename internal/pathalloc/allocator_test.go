package pathalloc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"autosort/internal/services"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestAllocateFreeName(t *testing.T) {
	dir := t.TempDir()
	got, err := NewAllocator(dir).Allocate("a_dog.jpg")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if want := filepath.Join(dir, "a_dog.jpg"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAllocateSkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "x.pdf"))
	touch(t, filepath.Join(dir, "x_1.pdf"))

	got, err := NewAllocator(dir).Allocate("x.pdf")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if want := filepath.Join(dir, "x_2.pdf"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAllocateReservesWithoutCreation(t *testing.T) {
	dir := t.TempDir()
	alloc := NewAllocator(dir)
	first, err := alloc.Allocate("x.pdf")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	second, err := alloc.Allocate("x.pdf")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if first != filepath.Join(dir, "x.pdf") || second != filepath.Join(dir, "x_1.pdf") {
		t.Fatalf("unexpected allocations %q %q", first, second)
	}
}

func TestReleaseMakesPathAvailable(t *testing.T) {
	dir := t.TempDir()
	alloc := NewAllocator(dir)
	first, _ := alloc.Allocate("x.pdf")
	alloc.Release(first)
	again, err := alloc.Allocate("x.pdf")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if again != first {
		t.Fatalf("expected released path %q to be reused, got %q", first, again)
	}
	if alloc.Reserved() != 1 {
		t.Fatalf("expected one reservation, got %d", alloc.Reserved())
	}
}

func TestAllocateWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "notes"))
	got, err := NewAllocator(dir).Allocate("notes")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if want := filepath.Join(dir, "notes_1"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAllocateStatFailure(t *testing.T) {
	alloc := NewAllocator(t.TempDir())
	alloc.stat = func(string) (os.FileInfo, error) { return nil, os.ErrPermission }
	_, err := alloc.Allocate("x.pdf")
	if !errors.Is(err, services.ErrAllocation) {
		t.Fatalf("expected allocation error, got %v", err)
	}
}

func TestAllocateConcurrentDistinct(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()

	const workers = 32
	paths := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := reg.Allocate(dir, "same.png")
			if err != nil {
				t.Errorf("Allocate: %v", err)
				return
			}
			paths[i] = p
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, workers)
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			t.Fatalf("duplicate allocation %q", p)
		}
		seen[p] = struct{}{}
	}
	for n := 1; n < workers; n++ {
		if _, ok := seen[filepath.Join(dir, fmt.Sprintf("same_%d.png", n))]; !ok {
			t.Fatalf("expected same_%d.png to be allocated", n)
		}
	}
}

func TestRegistrySharesAllocatorPerDirectory(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()
	if reg.For(dir) != reg.For(dir+string(filepath.Separator)) {
		t.Fatal("expected cleaned directories to share an allocator")
	}
	p, _ := reg.Allocate(dir, "a.png")
	reg.Release(p)
	if reg.For(dir).Reserved() != 0 {
		t.Fatal("expected registry release to clear reservation")
	}
}
