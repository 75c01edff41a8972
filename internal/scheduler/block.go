package scheduler

import (
	"context"
	"fmt"
)

// Op is a deferred asynchronous operation. Nothing happens until it is driven.
type Op[T any] func(ctx context.Context) (T, error)

// Then chains f after op.
func Then[T, U any](op Op[T], f func(context.Context, T) (U, error)) Op[U] {
	return func(ctx context.Context) (U, error) {
		v, err := op(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return f(ctx, v)
	}
}

// BlockOn runs op on p and blocks the calling goroutine until it resolves.
//
// Any number of goroutines may block on the same pool at once; each call
// occupies one worker only while its operation runs. op must not call
// BlockOn on the same pool.
func BlockOn[T any](p *Pool, op Op[T]) (T, error) {
	type result struct {
		v   T
		err error
	}

	done := make(chan result, 1)
	err := p.submit(context.Background(), task{
		run: func() {
			defer func() {
				if r := recover(); r != nil {
					done <- result{err: fmt.Errorf("%w: %v", ErrTaskPanicked, r)}
				}
			}()
			v, err := op(p.ctx)
			done <- result{v: v, err: err}
		},
		abandon: func() {
			done <- result{err: ErrPoolClosed}
		},
	})
	if err != nil {
		var zero T
		return zero, err
	}

	r := <-done
	return r.v, r.err
}
