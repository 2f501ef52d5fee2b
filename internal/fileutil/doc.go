// Package fileutil holds filesystem primitives that must never clobber data:
// exclusive verified copies and moves that refuse to replace an existing
// destination.
package fileutil
