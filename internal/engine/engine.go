package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/logdb/blobstore"
	"github.com/hupe1980/logdb/internal/manifest"
	"github.com/hupe1980/logdb/internal/resource"
	"github.com/hupe1980/logdb/internal/scheduler"
	"github.com/hupe1980/logdb/internal/segment"
	"github.com/hupe1980/logdb/internal/settings"
	"github.com/hupe1980/logdb/internal/wal"
)

// Log is a writable, append-only log.
type Log struct {
	store     blobstore.Store
	manifests *manifest.Store
	segments  *segmentSet
	settings  settings.Settings
	codec     segment.Compression
	exec      scheduler.Executor
	logger    *slog.Logger
	rc        *resource.Controller
	policy    CompactionPolicy
	writerID  string

	// lifeMu is held shared by every operation and exclusively by Close.
	lifeMu sync.RWMutex
	closed atomic.Bool

	// writeMu serializes appends. It makes the log the single point of
	// sequence assignment.
	writeMu sync.Mutex

	// commitMu serializes manifest edits.
	commitMu      sync.Mutex
	nextSegmentID uint64
	obsolete      []string

	mu         sync.RWMutex
	mem        *memTable
	imm        *memTable
	man        *manifest.Manifest
	nextSeq    uint64
	flushing   bool
	compacting bool
	stalled    int
	flushDone  chan struct{}
	bgErr      error

	bg       sync.WaitGroup
	bgCtx    context.Context
	bgCancel context.CancelFunc

	sealInterval time.Duration
	sealTimer    *time.Timer
}

// Open opens or creates the log stored in opts.Store and replays its WAL.
func Open(ctx context.Context, opts Options) (*Log, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if opts.Executor == nil {
		return nil, ErrNoExecutor
	}
	opts.setDefaults()
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}

	writerID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate writer id: %w", err)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	l := &Log{
		store:        opts.Store,
		manifests:    manifest.NewStore(opts.Store),
		segments:     newSegmentSet(opts.Store),
		settings:     opts.Settings,
		codec:        opts.Settings.CompressionCodec(),
		exec:         opts.Executor,
		logger:       opts.Logger,
		rc:           opts.Resources,
		policy:       opts.Policy,
		writerID:     writerID.String(),
		mem:          newMemTable(),
		flushDone:    make(chan struct{}),
		bgCtx:        bgCtx,
		bgCancel:     bgCancel,
		sealInterval: opts.SealInterval,
	}

	if err := l.recover(ctx); err != nil {
		bgCancel()
		return nil, err
	}

	if l.sealInterval > 0 {
		l.lifeMu.Lock()
		l.sealTimer = time.AfterFunc(l.sealInterval, l.seal)
		l.lifeMu.Unlock()
	}

	l.mu.RLock()
	full := l.mem.size >= l.settings.FlushThresholdBytes
	l.mu.RUnlock()
	if full {
		l.scheduleFlush()
	}

	return l, nil
}

// recover loads the manifest, replays the WAL tail and commits a manifest
// version carrying the new writer id.
func (l *Log) recover(ctx context.Context) error {
	m, err := l.manifests.Load(ctx)
	if errors.Is(err, manifest.ErrNotFound) {
		m = manifest.New()
	} else if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	names, err := l.store.List(ctx, wal.Prefix)
	if err != nil {
		return fmt.Errorf("failed to list WAL: %w", err)
	}

	nextSeq := max(m.NextSeq, m.FlushedSeq)
	var replayed, stale int
	for _, name := range names {
		start, err := wal.ParseName(name)
		if err != nil {
			l.logger.Warn("Ignoring unexpected WAL blob", "name", name)
			continue
		}
		if start < m.FlushedSeq {
			// Already covered by a segment; left over from an interrupted cleanup.
			if err := l.store.Delete(ctx, name); err != nil {
				l.logger.Warn("Failed to delete stale WAL blob", "name", name, "error", err)
			}
			stale++
			continue
		}

		data, err := blobstore.ReadAll(ctx, l.store, name)
		if err != nil {
			return fmt.Errorf("failed to read WAL blob %s: %w", name, err)
		}
		rec, err := wal.Decode(data)
		if err != nil {
			return fmt.Errorf("%w: WAL blob %s: %w", ErrCorrupt, name, err)
		}
		if rec.StartSeq != start || len(rec.Entries) == 0 {
			return fmt.Errorf("%w: WAL blob %s has start sequence %d", ErrCorrupt, name, rec.StartSeq)
		}

		size := batchSize(rec.Entries)
		var reserved int64
		if ok, _ := l.rc.TryAcquireMemory(size); ok {
			reserved = size
		}
		l.mem.add(rec.StartSeq, rec.Entries, name, size, reserved)
		nextSeq = max(nextSeq, rec.LastSeq()+1)
		replayed++
	}

	l.nextSeq = nextSeq
	l.nextSegmentID = m.NextSegmentID

	m.WriterID = l.writerID
	m.NextSeq = nextSeq
	if err := l.manifests.Save(ctx, m); err != nil {
		return fmt.Errorf("failed to commit manifest: %w", err)
	}
	l.man = m

	l.logger.Info("Log opened",
		"writer_id", l.writerID,
		"manifest", m.ID,
		"segments", len(m.Segments),
		"next_seq", nextSeq,
		"wal_replayed", replayed,
		"wal_stale", stale,
	)

	return nil
}

// enter guards an operation against a concurrent Close.
func (l *Log) enter() error {
	l.lifeMu.RLock()
	if l.closed.Load() {
		l.lifeMu.RUnlock()
		return ErrClosed
	}
	return nil
}

func (l *Log) leave() { l.lifeMu.RUnlock() }

// WriterID returns the id recorded in the manifest by this writer.
func (l *Log) WriterID() string { return l.writerID }

// NextSequence returns the sequence the next appended entry will get.
func (l *Log) NextSequence() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextSeq
}

// Append returns an operation that appends batch atomically and resolves
// to the sequence of its first entry. Entries get consecutive sequences.
func (l *Log) Append(batch []wal.Entry) scheduler.Op[uint64] {
	return func(ctx context.Context) (uint64, error) {
		if err := l.enter(); err != nil {
			return 0, err
		}
		defer l.leave()

		if len(batch) == 0 {
			return 0, ErrEmptyBatch
		}

		owned := make([]wal.Entry, len(batch))
		for i, e := range batch {
			owned[i] = wal.Entry{
				Key:   append([]byte(nil), e.Key...),
				Value: append([]byte(nil), e.Value...),
			}
		}
		size := batchSize(owned)

		l.writeMu.Lock()
		defer l.writeMu.Unlock()

		if err := l.reserve(ctx, size); err != nil {
			return 0, err
		}

		l.mu.RLock()
		start := l.nextSeq
		l.mu.RUnlock()

		rec := &wal.Record{StartSeq: start, Entries: owned}
		data, err := rec.Marshal()
		if err != nil {
			l.rc.ReleaseMemory(size)
			return 0, err
		}

		name := wal.Name(start)
		if err := l.store.Put(ctx, name, data); err != nil {
			l.rc.ReleaseMemory(size)
			return 0, fmt.Errorf("failed to write WAL blob %s: %w", name, err)
		}

		l.mu.Lock()
		l.mem.add(start, owned, name, size, size)
		l.nextSeq = rec.LastSeq() + 1
		full := l.mem.size >= l.settings.FlushThresholdBytes
		l.mu.Unlock()

		if full {
			l.scheduleFlush()
		}

		return start, nil
	}
}

// reserve acquires memtable memory for an append, stalling while the
// memtable budget is exhausted until a flush frees space.
func (l *Log) reserve(ctx context.Context, size int64) error {
	for {
		ok, err := l.rc.TryAcquireMemory(size)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBatchTooLarge, err)
		}
		if ok {
			return nil
		}

		l.mu.Lock()
		if l.bgErr != nil {
			err := l.bgErr
			l.mu.Unlock()
			return err
		}
		done := l.flushDone
		l.stalled++
		l.mu.Unlock()

		l.logger.Debug("Append stalled", "bytes", size, "memory_used", l.rc.MemoryUsage())
		l.scheduleFlush()

		// Nothing left to flush means the budget is held elsewhere; poll
		// rather than wait for a flush that will never start.
		l.mu.RLock()
		idle := !l.flushing
		l.mu.RUnlock()
		var (
			timer *time.Timer
			retry <-chan time.Time
		)
		if idle {
			timer = time.NewTimer(stallPollInterval)
			retry = timer.C
		}

		select {
		case <-done:
		case <-retry:
		case <-ctx.Done():
		}
		if timer != nil {
			timer.Stop()
		}

		l.mu.Lock()
		l.stalled--
		l.mu.Unlock()

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Scan returns an operation that opens an iterator over the entries of key
// with sequence >= start.
func (l *Log) Scan(key []byte, start uint64) scheduler.Op[*Iterator] {
	return func(ctx context.Context) (*Iterator, error) {
		if err := l.enter(); err != nil {
			return nil, err
		}
		defer l.leave()

		it, err := l.scan(ctx, key, start)
		if errors.Is(err, blobstore.ErrNotFound) {
			// A compaction committed and removed a segment of the snapshot.
			it, err = l.scan(ctx, key, start)
		}
		return it, err
	}
}

func (l *Log) scan(ctx context.Context, key []byte, start uint64) (*Iterator, error) {
	l.mu.RLock()
	segs := l.man.Segments
	var entries []Entry
	if l.imm != nil {
		entries = append(entries, l.imm.scan(key, start)...)
	}
	entries = append(entries, l.mem.scan(key, start)...)
	l.mu.RUnlock()

	fromSegments, err := l.segments.scan(ctx, segs, key, start)
	if err != nil {
		return nil, err
	}

	return newIterator(append(fromSegments, entries...)), nil
}

// Flush returns an operation that flushes the memtable and waits for it.
func (l *Log) Flush() scheduler.Op[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		if err := l.enter(); err != nil {
			return struct{}{}, err
		}
		defer l.leave()

		for {
			l.mu.Lock()
			if l.bgErr != nil {
				err := l.bgErr
				l.mu.Unlock()
				return struct{}{}, err
			}
			if l.mem.empty() && l.imm == nil {
				l.mu.Unlock()
				return struct{}{}, nil
			}
			done := l.flushDone
			l.mu.Unlock()

			l.scheduleFlush()

			select {
			case <-done:
			case <-ctx.Done():
				return struct{}{}, ctx.Err()
			}
		}
	}
}

// Close returns an operation that stops maintenance, waits for in-flight
// background work and flushes the memtable. Further calls fail with ErrClosed.
func (l *Log) Close() scheduler.Op[struct{}] {
	return func(ctx context.Context) (struct{}, error) {
		l.lifeMu.Lock()
		if l.closed.Load() {
			l.lifeMu.Unlock()
			return struct{}{}, ErrClosed
		}
		l.closed.Store(true)
		l.lifeMu.Unlock()

		if l.sealTimer != nil {
			l.sealTimer.Stop()
		}

		l.bg.Wait()

		var errs []error

		l.mu.Lock()
		bgErr := l.bgErr
		var imm *memTable
		if bgErr == nil && !l.mem.empty() {
			imm = l.mem
			l.imm = imm
			l.mem = newMemTable()
			l.flushing = true
		}
		l.mu.Unlock()

		if bgErr != nil {
			errs = append(errs, bgErr)
		}
		if imm != nil {
			if err := l.flush(ctx, imm); err != nil {
				errs = append(errs, err)
			}
		}

		l.bgCancel()

		l.logger.Info("Log closed", "writer_id", l.writerID)

		return struct{}{}, errors.Join(errs...)
	}
}

// Manifest returns a copy of the current manifest.
func (l *Log) Manifest() *manifest.Manifest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.man.Clone()
}
