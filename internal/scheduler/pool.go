package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// MaxWorkers bounds the size of a single pool.
const MaxWorkers = 4096

var (
	// ErrPoolClosed is returned when submitting to a pool that has shut down,
	// and to waiters whose queued task was dropped by ShutdownBackground.
	ErrPoolClosed = errors.New("pool closed")

	// ErrInvalidPoolSize is returned when a pool cannot be sized as requested.
	ErrInvalidPoolSize = errors.New("invalid pool size")

	// ErrTaskPanicked wraps a panic recovered from an operation.
	ErrTaskPanicked = errors.New("task panicked")
)

// Executor accepts tasks for asynchronous execution.
type Executor interface {
	Submit(ctx context.Context, task func()) error
}

type task struct {
	run     func()
	abandon func()
}

// Pool is a fixed set of goroutines executing submitted tasks.
type Pool struct {
	name       string
	numWorkers int
	workCh     chan task
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool
	detached   atomic.Bool
	submitMu   sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool starts a pool with numWorkers goroutines.
// If numWorkers <= 0, runtime.GOMAXPROCS(0) is used.
func NewPool(name string, numWorkers int) (*Pool, error) {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > MaxWorkers {
		return nil, fmt.Errorf("%w: %s wants %d workers (max %d)", ErrInvalidPoolSize, name, numWorkers, MaxWorkers)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		name:       name,
		numWorkers: numWorkers,
		workCh:     make(chan task, numWorkers*2),
		stopCh:     make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	p.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go p.worker()
	}

	return p, nil
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.numWorkers }

func (p *Pool) worker() {
	defer p.wg.Done()

	for t := range p.workCh {
		if p.detached.Load() {
			if t.abandon != nil {
				t.abandon()
			}
			continue
		}
		p.exec(t)
	}
}

func (p *Pool) exec(t task) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC RECOVERED in %s pool: %v\n%s\n", p.name, r, debug.Stack())
		}
	}()
	t.run()
}

// Submit enqueues fn. It returns immediately after enqueueing.
//
// Error conditions:
//   - ErrPoolClosed if the pool is shut down
//   - ctx.Err() if ctx is done before the task is enqueued
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	return p.submit(ctx, task{run: fn})
}

func (p *Pool) submit(ctx context.Context, t task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if p.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case p.workCh <- t:
		return nil
	case <-p.stopCh:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, runs every queued task and waits for the workers.
func (p *Pool) Close() {
	if !p.shutdown() {
		return
	}
	p.wg.Wait()
	p.cancel()
}

// ShutdownBackground stops accepting work and returns without waiting.
// Queued tasks are dropped (their waiters receive ErrPoolClosed) and the
// context passed to running operations is cancelled.
func (p *Pool) ShutdownBackground() {
	p.detached.Store(true)
	if !p.shutdown() {
		return
	}
	p.cancel()
}

func (p *Pool) shutdown() bool {
	if !p.closed.CompareAndSwap(false, true) {
		return false
	}

	// Unblock submitters waiting on a full queue before taking the write lock.
	close(p.stopCh)

	p.submitMu.Lock()
	close(p.workCh)
	p.submitMu.Unlock()
	return true
}
