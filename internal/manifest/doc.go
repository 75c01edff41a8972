// Package manifest implements atomic manifest persistence for the log.
//
// # Overview
//
// The manifest is a snapshot of the log's durable state: the live segments,
// the highest sequence covered by segments (FlushedSeq) and the next
// sequence to assign. Write-ahead blobs at or above FlushedSeq are replayed
// on open.
//
// # Atomic Protocol
//
// Save follows a two-phase commit protocol:
//
//  1. Write the manifest blob to MANIFEST-NNNNNN.json (N is the version ID)
//  2. Atomically update the CURRENT pointer to reference the new manifest
//
// On local filesystems step 2 uses atomic rename. On S3 it relies on strong
// read-after-write consistency, or on a conditional write when CURRENT is
// backed by DynamoDB.
//
// Load reads CURRENT to find the active manifest, then loads that file.
package manifest
