// Package mmap maps immutable blob files read-only.
//
// Blobs written by the local object store are never modified in place, so a
// mapping stays valid until it is closed even if the blob is replaced or
// deleted. Mappings are advised for a single sequential pass, which is how
// WAL records and segments are decoded. On platforms without mmap(2) the
// file is read into memory instead.
package mmap
