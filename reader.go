package logdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/logdb/internal/engine"
	"github.com/hupe1980/logdb/internal/scheduler"
	"github.com/hupe1980/logdb/model"
)

// Reader is a read-only view of a log.
//
// A Reader has its own storage connection and a single foreground pool; it
// runs no maintenance. Its view is refreshed lazily, at most once per
// refresh interval, so appends become visible with a bounded delay.
type Reader struct {
	rt      *scheduler.Runtime
	reader  *engine.Reader
	logger  *Logger
	metrics MetricsCollector
	closed  atomic.Bool
}

// OpenReader opens a read-only view of the log described by cfg.
// Errors are classified as for Open.
func OpenReader(cfg model.ReaderConfig, optFns ...Option) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	o := applyOptions(optFns)
	storage := describeStorage(cfg.Storage)
	ctx := context.Background()

	s, err := resolveSettings(cfg.Storage, o.settings)
	if err != nil {
		o.logger.LogOpen(ctx, "reader", storage, err)
		return nil, err
	}

	rt, err := scheduler.NewReadOnly(o.foregroundWorkers)
	if err != nil {
		err = nativeError(err)
		o.logger.LogOpen(ctx, "reader", storage, err)
		return nil, err
	}

	r, err := scheduler.BlockOn(rt.Foreground(), func(ctx context.Context) (*engine.Reader, error) {
		store, err := openStore(ctx, cfg.Storage, s)
		if err != nil {
			return nil, err
		}
		r, err := engine.OpenReader(ctx, engine.ReaderOptions{
			Store:           store,
			Logger:          o.logger.Logger,
			RefreshInterval: cfg.EffectiveRefreshInterval(),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEngine, err)
		}
		return r, nil
	})
	if err != nil {
		rt.Shutdown()
		err = translateError(err)
		o.logger.LogOpen(ctx, "reader", storage, err)
		return nil, err
	}

	o.logger.LogOpen(ctx, "reader", storage, nil)

	return &Reader{
		rt:      rt,
		reader:  r,
		logger:  &Logger{Logger: o.logger.With("storage", storage)},
		metrics: o.metricsCollector,
	}, nil
}

// Scan returns up to maxEntries entries of key with a sequence of at least
// start, as of the reader's current view.
func (r *Reader) Scan(key []byte, start uint64, maxEntries int) ([]model.LogEntry, error) {
	if r.closed.Load() {
		return nil, fmt.Errorf("%w: %w", ErrEngine, engine.ErrClosed)
	}
	return scan(r.rt.Foreground(), r.reader.Scan, r.logger, r.metrics, key, start, maxEntries)
}

// ScanWait is Scan that polls until at least one entry is available or
// timeout elapses.
func (r *Reader) ScanWait(key []byte, start uint64, maxEntries int, timeout time.Duration) ([]model.LogEntry, error) {
	return scanWait(func() ([]model.LogEntry, error) {
		return r.Scan(key, start, maxEntries)
	}, maxEntries, timeout)
}

// Refresh reloads the reader's view immediately.
func (r *Reader) Refresh() error {
	if r.closed.Load() {
		return fmt.Errorf("%w: %w", ErrEngine, engine.ErrClosed)
	}
	_, err := scheduler.BlockOn(r.rt.Foreground(), r.reader.Refresh())
	return translateError(err)
}

// Close releases the reader. The pool is released even when closing the
// view fails.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %w", ErrEngine, engine.ErrClosed)
	}

	_, err := scheduler.BlockOn(r.rt.Foreground(), r.reader.Close())
	r.rt.Shutdown()

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrEngine, err)
	}
	r.logger.LogClose(context.Background(), "reader", err)
	return err
}
