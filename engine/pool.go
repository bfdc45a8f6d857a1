package engine

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool is the fixed worker-thread budget spec.md §5 assigns to
// background definition loading, clone execution under choice(),
// on-commit queue draining, and bgcall. It is a thin wrapper over
// golang.org/x/sync/semaphore rather than a fixed-size goroutine farm:
// work items are ordinary goroutines gated by an acquire/release pair,
// which composes cleanly with contexts for cancellation (choice()
// cancelling losing clones, spec.md §4.F).
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool returns a pool admitting at most width concurrent work items.
func NewPool(width int64) *Pool {
	if width < 1 {
		width = 1
	}
	return &Pool{sem: semaphore.NewWeighted(width)}
}

// Go runs fn on a worker goroutine once a slot is free, or synchronously
// if ctx is cancelled first (fn still runs — cancellation only affects
// queueing order, callers own honoring ctx inside fn).
func (p *Pool) Go(ctx context.Context, fn func()) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		fn()
		return
	}
	go func() {
		defer p.sem.Release(1)
		fn()
	}()
}

// TryGo runs fn on a worker goroutine only if a slot is immediately
// free, reporting whether it was scheduled. Used by prep() (spec.md
// §4.D) to opportunistically warm caches without blocking the caller.
func (p *Pool) TryGo(fn func()) bool {
	if !p.sem.TryAcquire(1) {
		return false
	}
	go func() {
		defer p.sem.Release(1)
		fn()
	}()
	return true
}
