// Package choice implements the N-way clone race of spec.md §4.F: Race
// runs caller-supplied candidate threads concurrently against the
// engine's worker pool and selects exactly one winner. Race does not
// fork the candidates from an origin thread, and it neither commits the
// winner nor transfers the winner's state to another thread: it returns
// the winning clone's Result. Grounded on the teacher package's
// RunExpr (run.go): the same non-blocking-dispatch-with-backoff
// interleave loop, generalized from two fixed session sides to N
// pool-scheduled workers racing via a shared atomic completion signal
// instead of a session channel pair.
package choice

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/glasrt/engine"
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/iox"
)

// Clone is one candidate branch of a race: a forked thread and the
// program to run against it.
type Clone struct {
	Thread *engine.Thread
	Run    func(th *engine.Thread) rterr.Mask
}

// Result is one clone's outcome.
type Result struct {
	Index  int
	Thread *engine.Thread
	Mask   rterr.Mask
}

// Race runs every clone concurrently on pool and selects a winner by
// the heuristic of spec.md §4.F: the first clone whose Run returns a
// clean (zero) error mask wins outright, "winner take all"; if none
// finish clean, the clone that finished first stands instead. Every
// losing clone's thread is marked UNCREATED, so its Commit fails until
// the thread aborts, which discards its staged register writes; threads
// that a losing clone forked are not marked.
func Race(ctx context.Context, pool *engine.Pool, clones []Clone) Result {
	if len(clones) == 0 {
		return Result{Index: -1, Mask: rterr.Mask(0).Set(rterr.CLIENT)}
	}

	results := make([]Result, len(clones))
	done := make([]atomix.Uint32, len(clones))
	var winner atomix.Uint32   // 1-based winning index once a clean result lands
	var firstDone atomix.Uint32 // 1-based index of the first clone to finish, any outcome

	var wg sync.WaitGroup
	wg.Add(len(clones))
	for i, c := range clones {
		i, c := i, c
		pool.Go(ctx, func() {
			defer wg.Done()
			mask := c.Run(c.Thread)
			results[i] = Result{Index: i, Thread: c.Thread, Mask: mask}
			firstDone.CompareAndSwap(0, uint32(i+1))
			if !mask.Any() {
				winner.CompareAndSwap(0, uint32(i+1))
			}
			done[i].Store(1)
		})
	}

	var bo iox.Backoff
	for winner.Load() == 0 {
		allDone := true
		for i := range clones {
			if done[i].Load() == 0 {
				allDone = false
				break
			}
		}
		if allDone {
			winner.CompareAndSwap(0, firstDone.Load())
			break
		}
		bo.Wait()
	}
	wg.Wait()

	widx := int(winner.Load()) - 1
	for i := range clones {
		if i == widx {
			continue
		}
		results[i].Thread.Raise(rterr.Mask(0).Set(rterr.UNCREATED))
	}
	return results[widx]
}
