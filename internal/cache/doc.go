// Package cache provides a byte-budgeted LRU for immutable blobs.
package cache
