// Package runlock prevents two autosort processes from organizing the same
// source directory at once.
package runlock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"autosort/internal/services"
)

// Lock is an exclusive advisory lock scoped to one source directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// PathFor returns the lock file used for sourceDir inside lockDir.
func PathFor(lockDir, sourceDir string) string {
	abs, err := filepath.Abs(sourceDir)
	if err != nil {
		abs = filepath.Clean(sourceDir)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(lockDir, hex.EncodeToString(sum[:])+".lock")
}

// Acquire takes the lock for sourceDir without blocking. A lock already held
// by another process yields services.ErrLocked.
func Acquire(lockDir, sourceDir string) (*Lock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runlock", "mkdir", lockDir, err)
	}
	path := PathFor(lockDir, sourceDir)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrLocked, "runlock", "acquire",
			fmt.Sprintf("another run is organizing %s", sourceDir), nil)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release unlocks. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
