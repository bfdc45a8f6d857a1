package engine

import (
	"context"
	"time"

	"code.hybscloud.com/glasrt/rterr"
	"golang.org/x/sync/errgroup"
)

// OnCommit registers op to run when this step successfully commits.
// queueRegister, when non-empty, names a queue register whose drain
// this hook is associated with (spec.md §4.C's queue-write commit
// splice) — such hooks run after the register store applies the
// splice, on a worker from the thread's pool; the null queue ("") runs
// op inline, synchronously, before Commit returns, matching a plain
// on_commit(op, arg) call in spec.md §4.E.
func (th *Thread) OnCommit(queueRegister string, op func()) {
	if queueRegister == "" {
		th.onCommitNull = append(th.onCommitNull, hook{op: op})
		return
	}
	th.onCommitQ[queueRegister] = append(th.onCommitQ[queueRegister], hook{op: op})
}

// OnAbort registers op to run, LIFO, if this step aborts.
func (th *Thread) OnAbort(op func()) {
	th.onAbort = append(th.onAbort, hook{op: op})
}

// CheckpointSave records a restore point without pushing a new frame:
// it overwrites the top of the checkpoint stack, or creates the first
// frame if none exists (spec.md §4.E checkpoint_save).
func (th *Thread) CheckpointSave() {
	cp := th.snapshotCheckpoint()
	if len(th.checkpoints) == 0 {
		th.checkpoints = append(th.checkpoints, cp)
		return
	}
	th.checkpoints[len(th.checkpoints)-1] = cp
}

// CheckpointPush pushes a new restore point atop the checkpoint stack
// (checkpoint_push).
func (th *Thread) CheckpointPush() {
	th.checkpoints = append(th.checkpoints, th.snapshotCheckpoint())
}

// CheckpointDrop discards the top checkpoint frame without restoring
// it (checkpoint_drop). It is a no-op on an empty stack.
func (th *Thread) CheckpointDrop() {
	if len(th.checkpoints) == 0 {
		return
	}
	th.checkpoints = th.checkpoints[:len(th.checkpoints)-1]
}

// CheckpointLoad rewinds stack, stash, and namespace to the top
// checkpoint frame without popping it, running any on-abort hooks
// registered since that frame was taken (checkpoint_load). It is a
// no-op on an empty stack.
func (th *Thread) CheckpointLoad() {
	if len(th.checkpoints) == 0 {
		return
	}
	cp := th.checkpoints[len(th.checkpoints)-1]
	th.runAbortHooksSince(cp.onAbortMark)
	th.Stack.Restore(cp.stack)
	th.Stash.Restore(cp.stash)
	th.NS = cp.ns
	// deadlines are not reset by checkpoint_load
}

func (th *Thread) snapshotCheckpoint() Checkpoint {
	return Checkpoint{
		stack:       th.Stack.Snapshot(),
		stash:       th.Stash.Snapshot(),
		ns:          th.NS,
		onAbortMark: len(th.onAbort),
	}
}

func (th *Thread) runAbortHooksSince(mark int) {
	for len(th.onAbort) > mark {
		h := th.onAbort[len(th.onAbort)-1]
		th.onAbort = th.onAbort[:len(th.onAbort)-1]
		h.op()
	}
}

// Commit attempts to close the current step. On success it applies
// staged register writes, runs the null-queue on-commit hooks inline,
// dispatches named-queue on-commit hooks to the worker pool, snapshots
// the new committed state, opens a fresh register transaction, and
// clears the step's error register and checkpoint stack (spec.md
// §4.E). It fails with the accumulated error mask (unchanged) if any
// flag is set, or with ATOMICITY if called inside an atomic call
// section — "yields become commits", so a program that yields while
// call_atomic is active cannot actually commit.
func (th *Thread) Commit() rterr.Mask {
	th.checkDeadlines()
	if th.atomicDepth > 0 {
		m := rterr.Mask(0).Set(rterr.ATOMICITY)
		th.Raise(m)
		return m
	}
	if th.errFlags.Any() {
		return th.errFlags
	}
	th.phase = PhaseCommitting
	if mask := th.txn.Commit(); mask.Any() {
		th.Raise(mask)
		th.phase = PhaseOpen
		return mask
	}
	for _, h := range th.onCommitNull {
		h.op()
	}
	th.onCommitNull = nil
	if len(th.onCommitQ) > 0 {
		eg := &errgroup.Group{}
		for reg, hooks := range th.onCommitQ {
			hooks := hooks
			if th.pool != nil {
				eg.Go(func() error {
					done := make(chan struct{})
					th.pool.Go(context.Background(), func() {
						defer close(done)
						for _, h := range hooks {
							h.op()
						}
					})
					<-done
					return nil
				})
			} else {
				for _, h := range hooks {
					h.op()
				}
			}
			delete(th.onCommitQ, reg)
		}
		th.commitHooks = eg
	}
	th.onAbort = nil
	th.checkpoints = nil
	th.errFlags = 0
	th.stepDeadline = time.Time{}
	th.txn = th.store.Begin()
	th.snapshotCommitted()
	th.phase = PhaseOpen
	return 0
}

// AwaitCommitHooks blocks until every named-queue on-commit hook
// dispatched by the most recent Commit has finished draining, returning
// the first hard failure among them via golang.org/x/sync/errgroup's
// standard "first error wins" propagation (nil today, since on-commit
// hooks are plain funcs with no return value — this exists so a host
// that wants deterministic queue-drain-complete behavior, e.g. tests or
// a graceful shutdown, doesn't have to invent its own synchronization on
// top of Commit's fire-and-forget dispatch). A no-op returning nil if no
// named-queue hooks were dispatched by the last Commit.
func (th *Thread) AwaitCommitHooks() error {
	if th.commitHooks == nil {
		return nil
	}
	err := th.commitHooks.Wait()
	th.commitHooks = nil
	return err
}

// Abort discards the current step's uncommitted register writes and
// rewinds stack, stash, namespace, and checkpoint stack to the last
// committed state, running every on-abort hook LIFO (spec.md §4.E).
// UNRECOVERABLE survives; every other flag is cleared.
func (th *Thread) Abort() {
	th.phase = PhaseAborting
	th.runAbortHooksSince(0)
	th.Stack.Restore(th.committed.stack)
	th.Stash.Restore(th.committed.stash)
	th.NS = th.committed.ns
	th.checkpoints = append([]Checkpoint(nil), th.committed.checkpoints...)
	th.onCommitNull = nil
	th.onCommitQ = make(map[string][]hook)
	th.txn = th.store.Begin()
	// Discard everything Recoverable() reports as recoverable, leaving
	// only what genuinely survives a step abort (UNRECOVERABLE).
	th.errFlags = th.errFlags &^ th.errFlags.Recoverable()
	th.stepDeadline = time.Time{}
	th.checkpointDeadline = time.Time{}
	th.atomicDepth = 0
	th.phase = PhaseOpen
}
