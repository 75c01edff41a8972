package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation can never fit the limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes caps memtable memory. If 0, usage is only tracked.
	MemoryLimitBytes int64

	// MaxBackgroundJobs is the number of concurrent compactions. If 0, defaults to 1.
	MaxBackgroundJobs int64

	// IOLimitBytesPerSec throttles compaction uploads. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages the resources of one engine instance.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	bgSem *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxBackgroundJobs <= 0 {
		cfg.MaxBackgroundJobs = 1
	}

	c := &Controller{
		cfg:   cfg,
		bgSem: semaphore.NewWeighted(cfg.MaxBackgroundJobs),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// TryAcquireMemory reserves bytes without blocking.
// It returns false when the limit is currently exhausted and
// ErrMemoryLimitExceeded when bytes alone exceed the limit.
func (c *Controller) TryAcquireMemory(bytes int64) (bool, error) {
	if c == nil || bytes <= 0 {
		return true, nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return false, ErrMemoryLimitExceeded
		}
		if !c.memSem.TryAcquire(bytes) {
			return false, nil
		}
	}

	c.memUsed.Add(bytes)
	return true, nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireBackground reserves a background job slot, blocking while all are busy.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.bgSem.Acquire(ctx, 1)
}

// ReleaseBackground releases a background job slot.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.bgSem.Release(1)
}

// AcquireIO waits until the IO limit allows bytes to be written.
// Requests larger than one second of budget are split.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
