package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/logdb/blobstore"
	"github.com/hupe1980/logdb/internal/manifest"
	"github.com/hupe1980/logdb/internal/scheduler"
	"github.com/hupe1980/logdb/internal/wal"
)

// prefetcher is implemented by stores that can warm a cache.
type prefetcher interface {
	Prefetch(ctx context.Context, names []string, parallelism int) error
}

// Reader is a read-only view of a log. It never writes to the store and
// needs no background executor.
type Reader struct {
	store       blobstore.Store
	manifests   *manifest.Store
	segments    *segmentSet
	logger      *slog.Logger
	interval    time.Duration
	parallelism int

	closed atomic.Bool

	// refreshMu serializes refreshes.
	refreshMu   sync.Mutex
	lastRefresh time.Time

	mu   sync.RWMutex
	man  *manifest.Manifest
	tail *memTable
}

// OpenReader opens a read-only view and loads its first snapshot.
func OpenReader(ctx context.Context, opts ReaderOptions) (*Reader, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	opts.setDefaults()

	r := &Reader{
		store:       opts.Store,
		manifests:   manifest.NewStore(opts.Store),
		segments:    newSegmentSet(opts.Store),
		logger:      opts.Logger,
		interval:    opts.RefreshInterval,
		parallelism: opts.Parallelism,
	}

	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	if err := r.refresh(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

// Scan returns an operation that opens an iterator over the entries of key
// with sequence >= start. The view is refreshed first when it is older than
// the refresh interval.
func (r *Reader) Scan(key []byte, start uint64) scheduler.Op[*Iterator] {
	return func(ctx context.Context) (*Iterator, error) {
		if r.closed.Load() {
			return nil, ErrClosed
		}

		r.refreshMu.Lock()
		var err error
		if time.Since(r.lastRefresh) >= r.interval {
			err = r.refresh(ctx)
		}
		r.refreshMu.Unlock()
		if err != nil {
			return nil, err
		}

		it, err := r.scan(ctx, key, start)
		if errors.Is(err, blobstore.ErrNotFound) {
			// A segment of this view was compacted away and deleted.
			r.refreshMu.Lock()
			err = r.refresh(ctx)
			r.refreshMu.Unlock()
			if err != nil {
				return nil, err
			}
			it, err = r.scan(ctx, key, start)
		}

		return it, err
	}
}

// Refresh returns an operation that reloads the view immediately.
func (r *Reader) Refresh() scheduler.Op[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		if r.closed.Load() {
			return struct{}{}, ErrClosed
		}

		r.refreshMu.Lock()
		defer r.refreshMu.Unlock()
		return struct{}{}, r.refresh(ctx)
	}
}

// Close returns an operation that releases the view.
func (r *Reader) Close() scheduler.Op[struct{}] {
	return func(context.Context) (struct{}, error) {
		if !r.closed.CompareAndSwap(false, true) {
			return struct{}{}, ErrClosed
		}

		r.mu.Lock()
		r.man = nil
		r.tail = nil
		r.mu.Unlock()
		r.segments.retain(nil)

		return struct{}{}, nil
	}
}

func (r *Reader) scan(ctx context.Context, key []byte, start uint64) (*Iterator, error) {
	r.mu.RLock()
	m, tail := r.man, r.tail
	r.mu.RUnlock()
	if m == nil {
		return nil, ErrClosed
	}

	entries, err := r.segments.scan(ctx, m.Segments, key, start)
	if err != nil {
		return nil, err
	}

	return newIterator(append(entries, tail.scan(key, start)...)), nil
}

// refresh reloads the view, retrying once when a concurrent flush or
// compaction removed a blob the first attempt needed. refreshMu must be held.
func (r *Reader) refresh(ctx context.Context) error {
	err := r.load(ctx)
	if errors.Is(err, blobstore.ErrNotFound) {
		r.logger.Debug("View changed during refresh, retrying", "error", err)
		err = r.load(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to refresh view: %w", err)
	}
	r.lastRefresh = time.Now()
	return nil
}

func (r *Reader) load(ctx context.Context) error {
	m, err := r.manifests.Load(ctx)
	if errors.Is(err, manifest.ErrNotFound) {
		m = manifest.New()
	} else if err != nil {
		return err
	}

	all, err := r.store.List(ctx, wal.Prefix)
	if err != nil {
		return err
	}

	var names []string
	for _, name := range all {
		start, err := wal.ParseName(name)
		if err != nil || start < m.FlushedSeq {
			continue
		}
		names = append(names, name)
	}

	records := make([]*wal.Record, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, name := range names {
		g.Go(func() error {
			data, err := blobstore.ReadAll(gctx, r.store, name)
			if err != nil {
				return err
			}
			rec, err := wal.Decode(data)
			if err != nil {
				return fmt.Errorf("%w: WAL blob %s: %w", ErrCorrupt, name, err)
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tail := newMemTable()
	next := m.FlushedSeq
	for _, rec := range records {
		if len(rec.Entries) == 0 {
			continue
		}
		if rec.StartSeq != next {
			// Blobs below rec.StartSeq were flushed after the manifest was read.
			return fmt.Errorf("WAL gap at sequence %d: %w", next, blobstore.ErrNotFound)
		}
		tail.add(rec.StartSeq, rec.Entries, "", 0, 0)
		next = rec.LastSeq() + 1
	}

	if p, ok := r.store.(prefetcher); ok {
		var paths []string
		for _, s := range m.Segments {
			if !r.segments.has(s.ID) {
				paths = append(paths, s.Path)
			}
		}
		if len(paths) > 0 {
			if err := p.Prefetch(ctx, paths, r.parallelism); err != nil {
				return err
			}
		}
	}

	r.mu.Lock()
	r.man = m
	r.tail = tail
	r.mu.Unlock()
	r.segments.retain(m.Segments)

	r.logger.Debug("View refreshed",
		"manifest", m.ID,
		"segments", len(m.Segments),
		"wal_blobs", len(records),
		"next_seq", next,
	)

	return nil
}
