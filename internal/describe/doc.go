// Package describe turns file content into short human-readable labels.
//
// A Describer is an injected capability: Describe inspects one file and
// Fallback produces the degraded label used when Describe fails. Label is the
// boundary the rest of the pipeline calls. It enforces a timeout, recovers
// panics, and treats an empty label as a failure, so a description problem
// never escapes as an error.
//
// Two describers ship with the package. ImageDescriber captions pictures with
// a vision model and DocumentDescriber extracts first-page PDF text. Both
// number their fallback labels from a run-scoped Counter.
package describe
