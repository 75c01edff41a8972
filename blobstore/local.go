package blobstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/logdb/internal/mmap"
)

// LocalStore implements Store using the local file system.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading. Files are memory-mapped.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Put writes data to a temporary file and renames it into place.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	target := s.path(name)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(target)+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns all blobs below the root whose slash-separated name has the prefix.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) Bytes() []byte { return b.m.Bytes() }
func (b *localBlob) Size() int64   { return int64(b.m.Size()) }
func (b *localBlob) Close() error  { return b.m.Close() }
