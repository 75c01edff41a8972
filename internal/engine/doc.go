// Package engine implements the log-structured storage engine behind logdb.
//
// # Architecture
//
// A Log is an append-only, sequence-numbered log of key/value entries backed
// by a blobstore.Store:
//
//	Append -> WAL blob (wal/<start-seq>.wal) -> MemTable
//	                                              | flush (background)
//	                                              v
//	                                    Segment (segments/<id>.seg) + Manifest
//	                                              | compaction (background)
//	                                              v
//	                                    Larger segment at the next level
//
// Sequence numbers are global, start at 0 and are assigned contiguously per
// batch. A batch is durable once its WAL blob is written; appends are
// acknowledged only after that.
//
// # Async API
//
// Every blocking operation is returned as a scheduler.Op that does nothing
// until a caller drives it, usually with scheduler.BlockOn on a foreground
// pool. Flush and compaction run exclusively on the background Executor
// passed to Open, so they keep making progress while foreground callers are
// blocked.
//
// # Recovery
//
// Open loads the manifest through CURRENT and replays every WAL blob at or
// above the manifest's FlushedSeq into the memtable.
//
// # Read-only view
//
// OpenReader returns a Reader that never writes. It refreshes its view of the
// manifest and the WAL tail lazily, on Scan, once RefreshInterval elapsed.
package engine
