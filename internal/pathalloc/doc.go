// Package pathalloc hands out collision-free destination paths while many
// workers move files into the same directories.
//
// Each destination directory gets one Allocator. Allocation for a directory
// is serialized by the Allocator's mutex, and every path it returns stays
// reserved in memory until the caller releases it (after a failed move) or the
// run ends. Candidates are probed in the order name.ext, name_1.ext,
// name_2.ext, skipping any that exist on disk or are already reserved.
//
// Reservations only guard writers inside this process. Moves must still be
// create-if-absent so an outside writer that wins a race is reported as a
// collision rather than overwritten; the caller then allocates again.
package pathalloc
