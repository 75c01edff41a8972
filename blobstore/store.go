package blobstore

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrConcurrentModification is returned when a conditional commit loses a race.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// Store is an abstraction over a flat namespace of immutable blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// Bytes returns the blob content. The slice is valid until Close.
	Bytes() []byte
	// Size returns the size of the blob in bytes.
	Size() int64
	Close() error
}

// ReadAll opens name and returns a copy of its content.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data := b.Bytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// PrefixedStore scopes every name of an inner store below a prefix.
type PrefixedStore struct {
	inner  Store
	prefix string
}

// NewPrefixedStore returns inner scoped to prefix. An empty prefix returns inner.
func NewPrefixedStore(inner Store, prefix string) Store {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return inner
	}
	return &PrefixedStore{inner: inner, prefix: prefix + "/"}
}

func (s *PrefixedStore) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open implements Store.
func (s *PrefixedStore) Open(ctx context.Context, name string) (Blob, error) {
	return s.inner.Open(ctx, s.key(name))
}

// Put implements Store.
func (s *PrefixedStore) Put(ctx context.Context, name string, data []byte) error {
	return s.inner.Put(ctx, s.key(name), data)
}

// Delete implements Store.
func (s *PrefixedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, s.key(name))
}

// List implements Store.
func (s *PrefixedStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.inner.List(ctx, s.prefix+prefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if rel, ok := strings.CutPrefix(n, s.prefix); ok {
			out = append(out, rel)
		}
	}
	return out, nil
}

// bytesBlob is a Blob over an owned byte slice.
type bytesBlob struct {
	data []byte
}

// NewBytesBlob wraps data as a Blob.
func NewBytesBlob(data []byte) Blob {
	return &bytesBlob{data: data}
}

func (b *bytesBlob) Bytes() []byte { return b.data }
func (b *bytesBlob) Size() int64   { return int64(len(b.data)) }
func (b *bytesBlob) Close() error  { return nil }
