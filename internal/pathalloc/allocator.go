package pathalloc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"autosort/internal/services"
)

// Allocator serializes path allocation for one directory.
type Allocator struct {
	dir string

	mu       sync.Mutex
	reserved map[string]struct{}
	stat     func(string) (os.FileInfo, error)
}

// NewAllocator returns an allocator for dir.
func NewAllocator(dir string) *Allocator {
	return &Allocator{
		dir:      filepath.Clean(dir),
		reserved: make(map[string]struct{}),
		stat:     os.Lstat,
	}
}

// Dir reports the directory this allocator serves.
func (a *Allocator) Dir() string { return a.dir }

// Allocate returns the first free path for filename inside the directory and
// reserves it. The filename is split at its final extension; suffixes are
// inserted before the extension.
func (a *Allocator) Allocate(filename string) (string, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return "", services.Wrap(services.ErrAllocation, "allocate", "validate", "empty filename", nil)
	}
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	a.mu.Lock()
	defer a.mu.Unlock()

	for n := 0; ; n++ {
		name := filename
		if n > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		candidate := filepath.Join(a.dir, name)
		if _, taken := a.reserved[candidate]; taken {
			continue
		}
		_, err := a.stat(candidate)
		switch {
		case err == nil:
			continue
		case errors.Is(err, fs.ErrNotExist):
			a.reserved[candidate] = struct{}{}
			return candidate, nil
		default:
			return "", services.Wrap(services.ErrAllocation, "allocate", "stat", candidate, err)
		}
	}
}

// Release drops the reservation for path so it can be handed out again.
// Releasing an unknown path is a no-op.
func (a *Allocator) Release(path string) {
	a.mu.Lock()
	delete(a.reserved, filepath.Clean(path))
	a.mu.Unlock()
}

// Reserved reports how many paths are currently held.
func (a *Allocator) Reserved() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.reserved)
}
