// Package preflight provides readiness checks for the filesystem paths and
// the captioning model that autosort depends on.
//
// The CLI "autosort check" command runs RunAll and prints one line per
// result. "autosort run" does not call these checks: per-file failures are
// already reported in the run summary, and an unreachable model only
// degrades image names to fallback labels.
package preflight
