package logdb

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/logdb/internal/engine"
	"github.com/hupe1980/logdb/internal/envelope"
	"github.com/hupe1980/logdb/internal/scheduler"
	"github.com/hupe1980/logdb/model"
)

const scanWaitInterval = 10 * time.Millisecond

// scan opens a cursor with open and drains up to maxEntries entries from it
// while blocked on p. The cursor never outlives the call.
func scan(
	p *scheduler.Pool,
	open func(key []byte, start uint64) scheduler.Op[*engine.Iterator],
	logger *Logger,
	metrics MetricsCollector,
	key []byte, start uint64, maxEntries int,
) ([]model.LogEntry, error) {
	if maxEntries < 0 {
		return nil, fmt.Errorf("%w: max entries must not be negative, got %d", ErrInvalidArgument, maxEntries)
	}
	if maxEntries == 0 {
		return []model.LogEntry{}, nil
	}

	began := time.Now()

	entries, err := scheduler.BlockOn(p, scheduler.Then(open(key, start), drain(maxEntries)))
	err = translateError(err)

	metrics.RecordScan(len(entries), time.Since(began), err)
	logger.LogScan(context.Background(), key, start, len(entries), err)

	if err != nil {
		return nil, err
	}
	return entries, nil
}

func drain(maxEntries int) func(context.Context, *engine.Iterator) ([]model.LogEntry, error) {
	return func(ctx context.Context, it *engine.Iterator) ([]model.LogEntry, error) {
		out := make([]model.LogEntry, 0, min(maxEntries, it.Remaining()))
		for len(out) < maxEntries {
			e, ok, err := it.Next(ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			ts, payload := envelope.Decode(e.Value)
			out = append(out, model.LogEntry{
				Sequence:    e.Seq,
				TimestampMs: ts,
				Key:         bytes.Clone(e.Key),
				Payload:     bytes.Clone(payload),
			})
		}
		return out, nil
	}
}

// scanWait repeats scanOnce until it yields an entry, fails, or timeout elapses.
func scanWait(scanOnce func() ([]model.LogEntry, error), maxEntries int, timeout time.Duration) ([]model.LogEntry, error) {
	deadline := time.Now().Add(timeout)
	for {
		entries, err := scanOnce()
		if err != nil || len(entries) > 0 || maxEntries == 0 {
			return entries, err
		}
		if !time.Now().Before(deadline) {
			return entries, nil
		}
		time.Sleep(min(scanWaitInterval, time.Until(deadline)))
	}
}
