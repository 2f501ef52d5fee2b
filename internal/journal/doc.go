// Package journal persists run history in SQLite so past renames can be
// listed and traced back to their original filenames.
//
// Schema changes ship as numbered files under migrations/ and are applied
// in order on Open. The store keeps a single connection; concurrent
// workers serialize through it.
package journal
