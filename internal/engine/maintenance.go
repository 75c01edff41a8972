package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/logdb/internal/manifest"
	"github.com/hupe1980/logdb/internal/segment"
)

// manifestRetention is the number of manifest versions kept for readers
// that loaded CURRENT shortly before a commit.
const manifestRetention = 8

// submit runs fn on the background executor.
func (l *Log) submit(fn func(ctx context.Context)) error {
	if l.closed.Load() {
		return ErrClosed
	}

	l.bg.Add(1)
	err := l.exec.Submit(l.bgCtx, func() {
		defer l.bg.Done()
		fn(l.bgCtx)
	})
	if err != nil {
		l.bg.Done()
	}
	return err
}

// scheduleFlush rotates the memtable and submits a flush of it, unless a
// flush is already running.
func (l *Log) scheduleFlush() {
	l.mu.Lock()
	if l.flushing || l.mem.empty() || l.bgErr != nil || l.closed.Load() {
		l.mu.Unlock()
		return
	}
	imm := l.mem
	l.imm = imm
	l.mem = newMemTable()
	l.flushing = true
	l.mu.Unlock()

	err := l.submit(func(ctx context.Context) {
		if err := l.flush(ctx, imm); err != nil {
			l.logger.Error("Background flush failed", "error", err)
		}
	})
	if errors.Is(err, ErrClosed) {
		// Close flushes whatever is left once background work has drained.
		l.mu.Lock()
		imm.absorb(l.mem)
		l.mem = imm
		l.imm = nil
		l.flushing = false
		l.mu.Unlock()
		return
	}
	if err != nil {
		// The rotated memtable stays readable and its WAL blobs are replayed
		// on the next open.
		_ = l.finishFlush(imm, nil, fmt.Errorf("failed to schedule flush: %w", err))
	}
}

// flush writes imm as a level 0 segment, commits the manifest and deletes the
// WAL blobs it covers.
func (l *Log) flush(ctx context.Context, imm *memTable) error {
	start := time.Now()

	data, info, err := segment.Build(imm.entries, l.codec)
	if err != nil {
		return l.finishFlush(imm, nil, err)
	}

	l.commitMu.Lock()
	id := l.nextSegmentID
	l.nextSegmentID++
	path := segmentName(id)

	if err := l.store.Put(ctx, path, data); err != nil {
		l.commitMu.Unlock()
		return l.finishFlush(imm, nil, fmt.Errorf("failed to write segment %s: %w", path, err))
	}

	l.mu.RLock()
	m := l.man.Clone()
	nextSeq := l.nextSeq
	l.mu.RUnlock()

	m.Segments = append(m.Segments, manifest.SegmentInfo{
		ID:        id,
		Level:     0,
		Path:      path,
		Size:      int64(len(data)),
		Count:     info.Count,
		MinSeq:    info.MinSeq,
		MaxSeq:    info.MaxSeq,
		KeyFilter: info.Filter,
	})
	m.NextSegmentID = l.nextSegmentID
	m.FlushedSeq = imm.lastSeq() + 1
	m.NextSeq = nextSeq
	m.WriterID = l.writerID

	if err := l.manifests.Save(ctx, m); err != nil {
		l.commitMu.Unlock()
		_ = l.store.Delete(ctx, path) // Intentionally ignore: orphan cleanup
		return l.finishFlush(imm, nil, fmt.Errorf("failed to commit manifest: %w", err))
	}
	_ = l.finishFlush(imm, m, nil)
	l.commitMu.Unlock()

	for _, name := range imm.walNames {
		if err := l.store.Delete(ctx, name); err != nil {
			l.logger.Warn("Failed to delete WAL blob", "name", name, "error", err)
		}
	}
	l.pruneManifests(ctx, m.ID)

	l.logger.Info("Flush completed",
		"segment", id,
		"entries", info.Count,
		"bytes", len(data),
		"flushed_seq", m.FlushedSeq,
		"duration", time.Since(start),
	)

	l.scheduleCompaction()

	return nil
}

// finishFlush publishes the outcome of a flush and wakes stalled appends.
// A failed flush poisons the log: later writes return the error.
func (l *Log) finishFlush(imm *memTable, m *manifest.Manifest, err error) error {
	l.mu.Lock()
	if err == nil {
		l.man = m
		l.imm = nil
		// Released before flushDone closes: woken appends retry immediately.
		l.rc.ReleaseMemory(imm.reserved)
	} else if l.bgErr == nil {
		l.bgErr = err
	}
	l.flushing = false
	close(l.flushDone)
	l.flushDone = make(chan struct{})
	again := err == nil && !l.mem.empty() &&
		(l.stalled > 0 || l.mem.size >= l.settings.FlushThresholdBytes)
	l.mu.Unlock()

	if err != nil {
		return err
	}

	if again {
		l.scheduleFlush()
	}
	return nil
}

func (l *Log) scheduleCompaction() {
	l.mu.Lock()
	if l.compacting || l.bgErr != nil || l.closed.Load() {
		l.mu.Unlock()
		return
	}
	task := l.policy.Pick(l.man.Segments)
	if task == nil || len(task.Segments) < 2 {
		l.mu.Unlock()
		return
	}
	l.compacting = true
	l.mu.Unlock()

	err := l.submit(func(ctx context.Context) {
		l.compact(ctx, task)
	})
	if err != nil {
		l.mu.Lock()
		l.compacting = false
		l.mu.Unlock()
	}
}

func (l *Log) compact(ctx context.Context, task *CompactionTask) {
	err := l.runCompaction(ctx, task)

	l.mu.Lock()
	l.compacting = false
	l.mu.Unlock()

	if err != nil {
		l.logger.Error("Compaction failed", "error", err, "segments", len(task.Segments))
		return
	}

	l.scheduleCompaction()
}

// runCompaction merges the task's segments into one segment at the target
// level. The inputs are deleted after the next compaction commits, so that
// readers holding the previous manifest can still open them.
func (l *Log) runCompaction(ctx context.Context, task *CompactionTask) error {
	if err := l.rc.AcquireBackground(ctx); err != nil {
		return err
	}
	defer l.rc.ReleaseBackground()

	start := time.Now()
	l.logger.Info("Compaction started", "segments", len(task.Segments), "target_level", task.TargetLevel)

	l.mu.RLock()
	live := l.man.Segments
	l.mu.RUnlock()

	inputs := make([]manifest.SegmentInfo, 0, len(task.Segments))
	for _, id := range task.Segments {
		idx := slices.IndexFunc(live, func(s manifest.SegmentInfo) bool { return s.ID == id })
		if idx < 0 {
			return fmt.Errorf("segment %d is no longer live", id)
		}
		inputs = append(inputs, live[idx])
	}

	var entries []Entry
	for _, info := range inputs {
		seg, err := l.segments.get(ctx, info)
		if err != nil {
			return err
		}
		entries = append(entries, seg.Entries()...)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return cmp.Compare(a.Seq, b.Seq) })

	data, info, err := segment.Build(entries, l.codec)
	if err != nil {
		return err
	}

	if err := l.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}

	l.commitMu.Lock()
	id := l.nextSegmentID
	l.nextSegmentID++
	l.commitMu.Unlock()

	path := segmentName(id)
	if err := l.store.Put(ctx, path, data); err != nil {
		return fmt.Errorf("failed to write segment %s: %w", path, err)
	}

	l.commitMu.Lock()

	l.mu.RLock()
	m := l.man.Clone()
	l.mu.RUnlock()

	m.Segments = slices.DeleteFunc(m.Segments, func(s manifest.SegmentInfo) bool {
		return slices.Contains(task.Segments, s.ID)
	})
	m.Segments = append(m.Segments, manifest.SegmentInfo{
		ID:        id,
		Level:     task.TargetLevel,
		Path:      path,
		Size:      int64(len(data)),
		Count:     info.Count,
		MinSeq:    info.MinSeq,
		MaxSeq:    info.MaxSeq,
		KeyFilter: info.Filter,
	})
	slices.SortFunc(m.Segments, func(a, b manifest.SegmentInfo) int { return cmp.Compare(a.MinSeq, b.MinSeq) })
	m.NextSegmentID = l.nextSegmentID
	m.WriterID = l.writerID

	if err := l.manifests.Save(ctx, m); err != nil {
		l.commitMu.Unlock()
		_ = l.store.Delete(ctx, path) // Intentionally ignore: orphan cleanup
		if errors.Is(err, manifest.ErrConcurrentModification) {
			l.mu.Lock()
			if l.bgErr == nil {
				l.bgErr = err
			}
			l.mu.Unlock()
		}
		return fmt.Errorf("failed to commit manifest: %w", err)
	}

	l.mu.Lock()
	l.man = m
	l.mu.Unlock()

	obsolete := l.obsolete
	l.obsolete = make([]string, 0, len(inputs))
	for _, in := range inputs {
		l.obsolete = append(l.obsolete, in.Path)
	}
	l.commitMu.Unlock()

	l.segments.retain(m.Segments)

	for _, name := range obsolete {
		if err := l.store.Delete(ctx, name); err != nil {
			l.logger.Warn("Failed to delete obsolete segment", "name", name, "error", err)
		}
	}
	l.pruneManifests(ctx, m.ID)

	l.logger.Info("Compaction completed",
		"segments", len(inputs),
		"segment", id,
		"entries", info.Count,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	return nil
}

func (l *Log) pruneManifests(ctx context.Context, current uint64) {
	if current <= manifestRetention {
		return
	}
	if err := l.manifests.Prune(ctx, current-manifestRetention); err != nil {
		l.logger.Warn("Failed to prune manifests", "error", err)
	}
}

// seal flushes the memtable on the seal interval.
func (l *Log) seal() {
	if err := l.enter(); err != nil {
		return
	}
	defer l.leave()

	l.scheduleFlush()
	l.sealTimer.Reset(l.sealInterval)
}
