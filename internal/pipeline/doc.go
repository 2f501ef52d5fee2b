// Package pipeline classifies a source directory and runs one bounded
// worker pool per category, collecting per-file outcomes into a Summary.
//
// Categories proceed concurrently so a slow category (for example images
// waiting on a remote captioning model) never delays another. Within a
// category at most MaxWorkers files are in flight at once.
package pipeline
