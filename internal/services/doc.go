// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, categories, and file
//     paths for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is (per-file, per-category, or fatal to the run).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
