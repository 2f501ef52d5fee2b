package pathalloc

import (
	"path/filepath"
	"sync"
)

// Registry owns one Allocator per destination directory for the lifetime of
// a run.
type Registry struct {
	mu         sync.Mutex
	allocators map[string]*Allocator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{allocators: make(map[string]*Allocator)}
}

// For returns the allocator for dir, creating it on first use.
func (r *Registry) For(dir string) *Allocator {
	key := filepath.Clean(dir)
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.allocators[key]; ok {
		return a
	}
	a := NewAllocator(key)
	r.allocators[key] = a
	return a
}

// Allocate reserves a unique path for filename inside dir.
func (r *Registry) Allocate(dir, filename string) (string, error) {
	return r.For(dir).Allocate(filename)
}

// Release drops a reservation previously returned by Allocate.
func (r *Registry) Release(path string) {
	r.For(filepath.Dir(path)).Release(path)
}
