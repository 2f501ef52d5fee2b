// Package organizer renames and relocates single files.
//
// A Worker handles one FileEntry end to end: it derives a label through the
// guarded describer, sanitizes it into a stem, keeps the classified extension,
// reserves a unique destination path, and moves the file without ever
// replacing an existing one. A collision reported by the move (another writer
// won the race) sends the worker back to the allocator. Every failure is
// captured in the returned Outcome; the source file stays where it was.
package organizer
