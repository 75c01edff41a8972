// Package resource governs the memory, concurrency and IO budget of one log.
//
//   - Memory: bytes held by memtables. Reservation is non-blocking; a writer
//     that cannot reserve space stalls until a flush releases it.
//   - Background jobs: slots for compaction, so maintenance never fans out
//     beyond the configured width.
//   - IO: a token bucket limiting compaction uploads so they do not starve
//     foreground writes to the same object store.
//
// All methods are safe on a nil *Controller, which imposes no limits.
package resource
