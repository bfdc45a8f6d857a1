package engine

import (
	"context"

	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// bgcallQueueCapacity bounds the worker->caller handoff queue: a single
// Bgcall produces exactly one outcome, so capacity 1 is sufficient.
const bgcallQueueCapacity = 1

// Bgcall runs fn on the thread's worker pool and blocks the calling
// goroutine until fn finishes or ctx is cancelled. The handoff itself is exactly the
// single-producer/single-consumer relationship code.hybscloud.com/lfq
// exists for (one worker goroutine enqueues its one outcome, one caller
// goroutine dequeues it) — the same lfq.SPSC the teacher uses for its own
// session transport (session.go), generalized here from "typed value
// exchanged between two session endpoints" to "result handed back from a
// pool worker." Dequeue returning iox.ErrWouldBlock while the worker is
// still running is backed off with iox.Backoff exactly as the teacher's
// dispatchWait waits past that same error. This is the one place besides
// choice() where a thread's forward progress genuinely depends on a
// second party running concurrently; every other primitive operation on
// Thread is synchronous.
func (th *Thread) Bgcall(ctx context.Context, fn func() (*BgResult, error)) (*BgResult, error) {
	var q lfq.SPSC[*bgOutcome]
	q.Init(bgcallQueueCapacity)
	go th.pool.Go(ctx, func() {
		result, callErr := fn()
		slot := &bgOutcome{result: result, err: callErr}
		_ = q.Enqueue(&slot)
	})
	var bo iox.Backoff
	for {
		out, err := q.Dequeue()
		if err == nil {
			return out.result, out.err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		bo.Wait()
	}
}

// bgOutcome bundles fn's two return values into the single type
// lfq.SPSC's handoff queue carries.
type bgOutcome struct {
	result *BgResult
	err    error
}

// BgResult is the value a background call hands back to the thread
// that issued bgcall (spec.md §5).
type BgResult struct {
	Value any
	Mask  rterr.Mask
}
