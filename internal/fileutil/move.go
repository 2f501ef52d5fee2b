package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

var errNoReplaceUnsupported = errors.New("rename without replace not supported")

// MoveNoReplace moves src to dst and never overwrites an existing dst. When
// dst already exists the returned error satisfies errors.Is(err, fs.ErrExist)
// and src is left untouched.
//
// It prefers an atomic rename that refuses to replace, falls back to
// link+unlink, and crosses filesystems with a verified exclusive copy
// followed by removal of src. If src cannot be removed after a link or copy,
// the new dst is removed again so the file ends up in exactly one place.
func MoveNoReplace(src, dst string) error {
	err := renameNoReplace(src, dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrExist):
		return err
	case errors.Is(err, syscall.EXDEV):
		return copyThenRemove(src, dst)
	case errors.Is(err, errNoReplaceUnsupported):
		return linkThenRemove(src, dst)
	default:
		return err
	}
}

func linkThenRemove(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}
		if _, statErr := os.Lstat(src); statErr != nil {
			return err
		}
		// Cross-device or no hard link support on this filesystem.
		return copyThenRemove(src, dst)
	}
	return removeSource(src, dst)
}

func copyThenRemove(src, dst string) error {
	if err := CopyFileExclusive(src, dst); err != nil {
		return err
	}
	return removeSource(src, dst)
}

func removeSource(src, dst string) error {
	if err := os.Remove(src); err != nil {
		if undoErr := os.Remove(dst); undoErr != nil {
			return fmt.Errorf("remove source: %w (undo destination: %v)", err, undoErr)
		}
		return fmt.Errorf("remove source: %w", err)
	}
	return nil
}
