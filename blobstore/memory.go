package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store implementation.
// It stores blobs in memory without any filesystem dependency.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Open opens a blob for reading.
func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}

	// Stored slices are never mutated after Put, so sharing is safe.
	return NewBytesBlob(data), nil
}

// Put writes a blob atomically.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	// Copy to prevent external mutation
	copied := make([]byte, len(data))
	copy(copied, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = copied
	return nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// List returns all blobs matching the prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
