// Package scheduler drives asynchronous engine operations from synchronous calls.
//
// A read-write Runtime owns two independent pools:
//
//   - Foreground: runs the operation a caller is blocked on (see BlockOn).
//   - Background: handed to the engine at construction for flush and compaction.
//
// Foreground calls may stall on maintenance (for example an append waiting
// for a flush to free memtable space). Running maintenance on the same
// workers would let blocked callers occupy every worker while the flush
// that would release them sits in the queue.
//
// Read-only runtimes have no background pool.
package scheduler
