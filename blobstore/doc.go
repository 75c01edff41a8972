// Package blobstore provides the object store abstraction logdb persists to.
//
// Store is the interface for reading and writing named blobs (WAL batches,
// segments, manifests). Implementations must be safe for concurrent use and
// Put must be atomic: readers observe either the old or the new content.
//
// # Built-in Implementations
//
//   - MemoryStore: process-local, for tests and in-memory logs
//   - LocalStore: local filesystem with mmap reads
//   - s3.Store: Amazon S3
//   - s3.DDBCommitStore: S3 with DynamoDB-backed CURRENT commits
//   - minio.Store: MinIO and other S3-compatible endpoints
//
// CachingStore wraps any Store with a byte-budgeted LRU for immutable blobs.
package blobstore
