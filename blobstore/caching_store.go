package blobstore

import (
	"context"
	"strings"

	"github.com/hupe1980/logdb/internal/cache"
	"golang.org/x/sync/errgroup"
)

// CachingStore wraps a Store and caches the content of immutable blobs.
// Only names below one of the configured prefixes are cached.
type CachingStore struct {
	inner    Store
	cache    *cache.LRU
	prefixes []string
}

// NewCachingStore creates a new CachingStore.
func NewCachingStore(inner Store, lru *cache.LRU, immutablePrefixes ...string) *CachingStore {
	return &CachingStore{
		inner:    inner,
		cache:    lru,
		prefixes: immutablePrefixes,
	}
}

func (s *CachingStore) cacheable(name string) bool {
	for _, p := range s.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Open serves cacheable blobs from the cache, filling it on a miss.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if !s.cacheable(name) {
		return s.inner.Open(ctx, name)
	}
	if data, ok := s.cache.Get(name); ok {
		return NewBytesBlob(data), nil
	}

	data, err := ReadAll(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, data)
	return NewBytesBlob(data), nil
}

// Put invalidates the cached copy and writes through.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Remove(name)
	return s.inner.Put(ctx, name, data)
}

// Delete invalidates the cached copy and deletes from the inner store.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Remove(name)
	return s.inner.Delete(ctx, name)
}

// List implements Store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Prefetch loads the given blobs into the cache concurrently.
func (s *CachingStore) Prefetch(ctx context.Context, names []string, parallelism int) error {
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for _, name := range names {
		if !s.cacheable(name) {
			continue
		}
		if _, ok := s.cache.Get(name); ok {
			continue
		}
		g.Go(func() error {
			data, err := ReadAll(ctx, s.inner, name)
			if err != nil {
				return err
			}
			s.cache.Set(name, data)
			return nil
		})
	}
	return g.Wait()
}
