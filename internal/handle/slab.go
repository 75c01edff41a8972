// Package handle implements a generation-checked slab of live resources.
//
// A Handle packs a slot index and the slot's generation into a uint64.
// Removing a resource bumps the generation of its slot, so stale or
// replayed handles fail lookup instead of reaching a reused slot.
package handle

import (
	"errors"
	"sync"
)

// ErrInvalidHandle is returned for handles that do not name a live resource.
var ErrInvalidHandle = errors.New("invalid handle")

// Handle is an opaque reference to a slab entry. The zero Handle is never valid.
type Handle uint64

func makeHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) index() uint32      { return uint32(h) }
func (h Handle) generation() uint32 { return uint32(h >> 32) }

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// Slab stores values addressed by Handle. It is safe for concurrent use.
type Slab[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
	live  int
}

// NewSlab creates an empty slab.
func NewSlab[T any]() *Slab[T] {
	return &Slab[T]{}
}

// Insert stores v and returns its handle.
func (s *Slab[T]) Insert(v T) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.slots))
		// Generations start at 1 so that Handle(0) never resolves.
		s.slots = append(s.slots, slot[T]{generation: 1})
	}

	sl := &s.slots[idx]
	sl.value = v
	sl.live = true
	s.live++
	return makeHandle(idx, sl.generation)
}

// Get returns the value stored under h.
func (s *Slab[T]) Get(h Handle) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.lookup(h)
	if !ok {
		var zero T
		return zero, ErrInvalidHandle
	}
	return sl.value, nil
}

// Remove takes the value out of the slab. The handle and any copies of it
// become invalid. Removing the same handle twice fails the second time.
func (s *Slab[T]) Remove(h Handle) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	sl, ok := s.lookup(h)
	if !ok {
		return zero, ErrInvalidHandle
	}

	v := sl.value
	sl.value = zero
	sl.live = false
	sl.generation++
	if sl.generation == 0 {
		sl.generation = 1
	}
	s.free = append(s.free, h.index())
	s.live--
	return v, nil
}

// Len returns the number of live entries.
func (s *Slab[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

func (s *Slab[T]) lookup(h Handle) (*slot[T], bool) {
	idx := h.index()
	if int(idx) >= len(s.slots) {
		return nil, false
	}
	sl := &s.slots[idx]
	if !sl.live || sl.generation != h.generation() {
		return nil, false
	}
	return sl, true
}
