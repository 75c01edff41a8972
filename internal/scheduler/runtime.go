package scheduler

import "fmt"

const (
	foregroundName = "logdb-foreground"
	backgroundName = "logdb-background"
)

// Runtime is the set of pools owned by one open resource.
type Runtime struct {
	foreground *Pool
	background *Pool
}

// NewReadWrite builds a runtime with a foreground and a background pool.
// No pool is left running if construction fails.
func NewReadWrite(foregroundWorkers, backgroundWorkers int) (*Runtime, error) {
	fg, err := NewPool(foregroundName, foregroundWorkers)
	if err != nil {
		return nil, fmt.Errorf("foreground pool: %w", err)
	}
	bg, err := NewPool(backgroundName, backgroundWorkers)
	if err != nil {
		fg.ShutdownBackground()
		return nil, fmt.Errorf("background pool: %w", err)
	}
	return &Runtime{foreground: fg, background: bg}, nil
}

// NewReadOnly builds a runtime without a background pool.
func NewReadOnly(foregroundWorkers int) (*Runtime, error) {
	fg, err := NewPool(foregroundName, foregroundWorkers)
	if err != nil {
		return nil, fmt.Errorf("foreground pool: %w", err)
	}
	return &Runtime{foreground: fg}, nil
}

// Foreground returns the pool for caller-driven operations.
func (r *Runtime) Foreground() *Pool { return r.foreground }

// Background returns the maintenance executor, or nil for read-only runtimes.
func (r *Runtime) Background() Executor {
	if r.background == nil {
		return nil
	}
	return r.background
}

// ReadOnly reports whether the runtime has no background pool.
func (r *Runtime) ReadOnly() bool { return r.background == nil }

// Shutdown tears down every pool without waiting for queued work.
// The engine must be closed before calling Shutdown.
func (r *Runtime) Shutdown() {
	r.foreground.ShutdownBackground()
	if r.background != nil {
		r.background.ShutdownBackground()
	}
}
