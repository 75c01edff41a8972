package logdb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAppend is called after each append call.
	// count is the number of records in the batch, err is nil if successful.
	RecordAppend(count int, duration time.Duration, err error)

	// RecordScan is called after each scan call with the number of entries returned.
	RecordScan(entries int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordScan(int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AppendCount      atomic.Int64
	AppendRecords    atomic.Int64
	AppendErrors     atomic.Int64
	AppendTotalNanos atomic.Int64
	ScanCount        atomic.Int64
	ScanEntries      atomic.Int64
	ScanErrors       atomic.Int64
	ScanTotalNanos   atomic.Int64
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(count int, duration time.Duration, err error) {
	b.AppendCount.Add(1)
	b.AppendTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AppendErrors.Add(1)
		return
	}
	b.AppendRecords.Add(int64(count))
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(entries int, duration time.Duration, err error) {
	b.ScanCount.Add(1)
	b.ScanTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ScanErrors.Add(1)
		return
	}
	b.ScanEntries.Add(int64(entries))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AppendCount:    b.AppendCount.Load(),
		AppendRecords:  b.AppendRecords.Load(),
		AppendErrors:   b.AppendErrors.Load(),
		AppendAvgNanos: avg(b.AppendTotalNanos.Load(), b.AppendCount.Load()),
		ScanCount:      b.ScanCount.Load(),
		ScanEntries:    b.ScanEntries.Load(),
		ScanErrors:     b.ScanErrors.Load(),
		ScanAvgNanos:   avg(b.ScanTotalNanos.Load(), b.ScanCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AppendCount    int64
	AppendRecords  int64
	AppendErrors   int64
	AppendAvgNanos int64
	ScanCount      int64
	ScanEntries    int64
	ScanErrors     int64
	ScanAvgNanos   int64
}
