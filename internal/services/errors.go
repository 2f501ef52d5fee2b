package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSourceNotFound = errors.New("source directory not found")
	ErrDirectory      = errors.New("destination directory error")
	ErrDescribe       = errors.New("describe failed")
	ErrAllocation     = errors.New("path allocation failed")
	ErrCollision      = errors.New("destination already exists")
	ErrMove           = errors.New("move failed")
	ErrLocked         = errors.New("run already in progress")
	ErrExternalTool   = errors.New("external tool error")
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrTimeout        = errors.New("timeout")
	ErrTransient      = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether err should abort a whole run rather than a single
// file or category.
func Fatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrSourceNotFound), errors.Is(err, ErrConfiguration), errors.Is(err, ErrLocked):
		return true
	default:
		return false
	}
}

// Marker returns the short label of the sentinel carried by err, or
// "unknown" when none matches.
func Marker(err error) string {
	for _, marker := range []error{
		ErrSourceNotFound, ErrDirectory, ErrDescribe, ErrAllocation, ErrCollision,
		ErrMove, ErrLocked, ErrExternalTool, ErrValidation, ErrConfiguration,
		ErrTimeout, ErrTransient,
	} {
		if errors.Is(err, marker) {
			return marker.Error()
		}
	}
	return "unknown"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
