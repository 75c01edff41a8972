package logdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/logdb/internal/engine"
	"github.com/hupe1980/logdb/internal/envelope"
	"github.com/hupe1980/logdb/internal/scheduler"
	"github.com/hupe1980/logdb/internal/wal"
	"github.com/hupe1980/logdb/model"
)

// DB is a read-write log.
//
// A DB owns a foreground pool driving caller operations and a background
// pool running the engine's flush and compaction. It is safe for concurrent
// use by multiple goroutines.
type DB struct {
	rt      *scheduler.Runtime
	log     *engine.Log
	logger  *Logger
	metrics MetricsCollector
	closed  atomic.Bool
}

// Open opens a read-write log described by cfg.
//
// Invalid configuration fails with ErrConfig, failure to construct the
// worker pools or storage clients with ErrNative, and failure to open the
// engine with ErrEngine. Nothing is left running when Open fails.
func Open(cfg model.Config, optFns ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	o := applyOptions(optFns)
	storage := describeStorage(cfg.Storage)
	ctx := context.Background()

	s, err := resolveSettings(cfg.Storage, o.settings)
	if err != nil {
		o.logger.LogOpen(ctx, "writer", storage, err)
		return nil, err
	}

	rt, err := scheduler.NewReadWrite(o.foregroundWorkers, o.backgroundWorkers)
	if err != nil {
		err = nativeError(err)
		o.logger.LogOpen(ctx, "writer", storage, err)
		return nil, err
	}

	log, err := scheduler.BlockOn(rt.Foreground(), func(ctx context.Context) (*engine.Log, error) {
		store, err := openStore(ctx, cfg.Storage, s)
		if err != nil {
			return nil, err
		}
		log, err := engine.Open(ctx, engine.Options{
			Store:        store,
			Settings:     s,
			Executor:     rt.Background(),
			Logger:       o.logger.Logger,
			SealInterval: cfg.Segmentation.SealInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEngine, err)
		}
		return log, nil
	})
	if err != nil {
		rt.Shutdown()
		err = translateError(err)
		o.logger.LogOpen(ctx, "writer", storage, err)
		return nil, err
	}

	o.logger.LogOpen(ctx, "writer", storage, nil)

	return &DB{
		rt:      rt,
		log:     log,
		logger:  &Logger{Logger: o.logger.With("storage", storage)},
		metrics: o.metricsCollector,
	}, nil
}

// Append writes records as one atomic batch.
//
// Every payload is stored behind its own record's timestamp header. The
// result carries the sequence assigned to the first record and that
// record's timestamp; the batch occupies consecutive sequences from there.
func (db *DB) Append(records []model.Record) (model.AppendResult, error) {
	if len(records) == 0 {
		return model.AppendResult{}, ErrEmptyBatch
	}
	if db.closed.Load() {
		return model.AppendResult{}, fmt.Errorf("%w: %w", ErrEngine, engine.ErrClosed)
	}

	start := time.Now()

	batch := make([]wal.Entry, len(records))
	for i, r := range records {
		batch[i] = wal.Entry{Key: r.Key, Value: envelope.Encode(r.TimestampMs, r.Payload)}
	}

	seq, err := scheduler.BlockOn(db.rt.Foreground(), db.log.Append(batch))
	err = translateError(err)

	db.metrics.RecordAppend(len(records), time.Since(start), err)
	db.logger.LogAppend(context.Background(), len(records), seq, err)

	if err != nil {
		return model.AppendResult{}, err
	}
	return model.AppendResult{StartSequence: seq, TimestampMs: records[0].TimestampMs}, nil
}

// AppendOne appends a single record stamped with the current wall clock.
func (db *DB) AppendOne(key, payload []byte) (model.AppendResult, error) {
	return db.Append([]model.Record{model.NewRecord(key, payload, time.Now().UnixMilli())})
}

// Scan returns up to maxEntries entries of key with a sequence of at least start,
// in ascending sequence order. A maxEntries of zero returns no entries.
func (db *DB) Scan(key []byte, start uint64, maxEntries int) ([]model.LogEntry, error) {
	if db.closed.Load() {
		return nil, fmt.Errorf("%w: %w", ErrEngine, engine.ErrClosed)
	}
	return scan(db.rt.Foreground(), db.log.Scan, db.logger, db.metrics, key, start, maxEntries)
}

// ScanWait is Scan that polls until at least one entry is available or
// timeout elapses. It returns an empty result on timeout.
func (db *DB) ScanWait(key []byte, start uint64, maxEntries int, timeout time.Duration) ([]model.LogEntry, error) {
	return scanWait(func() ([]model.LogEntry, error) {
		return db.Scan(key, start, maxEntries)
	}, maxEntries, timeout)
}

// Close flushes and closes the engine, then releases the worker pools.
//
// The pools are released even when the engine reports an error, which is
// returned as ErrEngine. Closing twice fails with ErrEngine.
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %w", ErrEngine, engine.ErrClosed)
	}

	_, err := scheduler.BlockOn(db.rt.Foreground(), db.log.Close())
	db.rt.Shutdown()

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrEngine, err)
	}
	db.logger.LogClose(context.Background(), "writer", err)
	return err
}
