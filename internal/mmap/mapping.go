package mmap

import (
	"errors"
	"os"
	"sync/atomic"
)

// ErrInvalidSize is returned for files too large to map into the address space.
var ErrInvalidSize = errors.New("mmap: invalid file size")

// Mapping is a read-only view of a blob file.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the blob file at path.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Mapping{}, nil
	}
	if int64(int(size)) != size {
		return nil, ErrInvalidSize
	}

	data, unmap, err := mapFile(f, int(size))
	if err != nil {
		return nil, err
	}
	adviseSequential(data)

	return &Mapping{data: data, unmap: unmap}, nil
}

// Close releases the mapping. Calling it again is a no-op.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.unmap == nil {
		return nil
	}
	return m.unmap(m.data)
}

// Bytes returns the blob content, or nil after Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the blob size in bytes.
func (m *Mapping) Size() int {
	return len(m.data)
}
