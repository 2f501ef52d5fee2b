// Package classify lists the files directly inside a source directory, routes
// each one to a category by extension, and prepares the category destination
// directories.
//
// Only categories that actually received files get a destination. A
// destination that cannot be created or written is recorded on its Batch
// instead of failing the whole classification, so other categories can still
// run.
package classify
