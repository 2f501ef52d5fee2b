package preflight

import (
	"context"

	"autosort/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks that apply to cfg when organizing sourceDir.
// The LLM check only runs while the image category is enabled.
func RunAll(ctx context.Context, cfg *config.Config, sourceDir string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if sourceDir == "" {
		results = append(results, Result{Name: "Source directory", Detail: "not configured (set paths.source_dir or pass a path)"})
	} else {
		results = append(results, CheckDirectoryAccess("Source directory", sourceDir))
	}

	if cfg.Paths.DestinationRoot != "" {
		results = append(results, CheckCreatableDirectory("Destination root", cfg.Paths.DestinationRoot))
	}

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Categories.Image.Enabled {
		results = append(results, CheckLLM(ctx, "Caption LLM", cfg.LLM))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
