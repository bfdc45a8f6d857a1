// Package engine implements the per-coroutine step engine of spec.md
// §4.E: a thread's data stack, stash, namespace, checkpoint stack, and
// the OPEN -> COMMITTING/ABORTING transactional step protocol. Grounded
// on the teacher package's session.go/step.go/exec.go: where the
// teacher interleaves two session endpoints via non-blocking dispatch
// and code.hybscloud.com/iox.Backoff, this package keeps that exact
// pattern for the two spec.md §5 operations that are genuinely
// concurrent — choice() clone racing (package choice) and bgcall — but
// an ordinary thread step, being "a logically single-threaded
// cooperative actor driven by the host" (spec.md §5), is plain
// synchronous Go method calls with no suspension machinery: there is no
// second party to interleave with.
package engine

import (
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/glasrt/namespace"
	"code.hybscloud.com/glasrt/register"
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
	"golang.org/x/sync/errgroup"
)

// Serial is a monotonically increasing thread identifier, ported from
// the teacher's serial.go idiom (code.hybscloud.com/atomix counter).
type Serial = uint32

var threadCounter atomix.Uint32

func nextSerial() Serial { return threadCounter.Add(1) }

// Phase is the thread's position in the OPEN -> COMMITTING/ABORTING
// state machine of spec.md §4.E.
type Phase uint8

const (
	PhaseOpen Phase = iota
	PhaseCommitting
	PhaseAborting
)

// Checkpoint is a snapshot of thread state, per checkpoint_save/push.
type Checkpoint struct {
	stack       []*value.Value
	stash       []*value.Value
	ns          *namespace.Namespace
	onAbortMark int
}

type hook struct {
	op  func()
	arg any
}

// committedState is the snapshot abort() rewinds to: the state as of
// the last successful commit (or thread creation), distinct from any
// user checkpoint.
type committedState struct {
	stack       []*value.Value
	stash       []*value.Value
	ns          *namespace.Namespace
	checkpoints []Checkpoint
}

// Thread is one coroutine: stack, stash, namespace, checkpoint stack,
// and the transactional bookkeeping of a single open step, per
// spec.md §1/§4.E.
type Thread struct {
	Serial Serial

	store *register.Store
	pool  *Pool
	txn   *register.Txn

	Stack *value.Stack
	Stash *value.Stack
	NS    *namespace.Namespace

	checkpoints []Checkpoint
	committed   committedState

	errFlags    rterr.Mask
	atomicDepth int
	phase       Phase

	onCommitNull []hook            // null-queue on-commit hooks: run inline before commit returns
	onCommitQ    map[string][]hook // named-queue on-commit hooks: drained on worker threads
	onAbort      []hook            // LIFO

	commitHooks *errgroup.Group // supervises the most recent Commit's named-queue dispatch; see AwaitCommitHooks

	stepDeadline       time.Time
	checkpointDeadline time.Time

	attached     bool
	callerNS     *namespace.Namespace
	callerPrefix string
	debugName    string

	pendingForks []*Thread // tentative until this thread commits
}

// New creates a thread against store with an empty stack/stash and the
// given root namespace, matching original_source/c/api/glas.h's
// glas_create: "starts with an empty data stack... no risk of stack
// underflow" is not carried over here — UNDERFLOW is a real, reportable
// error in this port (see DESIGN.md).
func New(store *register.Store, pool *Pool, ns *namespace.Namespace) *Thread {
	th := &Thread{
		Serial: nextSerial(),
		store:  store,
		pool:   pool,
		Stack:  value.NewStack(),
		Stash:  value.NewStack(),
		NS:     ns,
		onCommitQ: make(map[string][]hook),
	}
	th.txn = store.Begin()
	th.snapshotCommitted()
	return th
}

func (th *Thread) snapshotCommitted() {
	th.committed = committedState{
		stack:       th.Stack.Snapshot(),
		stash:       th.Stash.Snapshot(),
		ns:          th.NS,
		checkpoints: append([]Checkpoint(nil), th.checkpoints...),
	}
}

// Raise ORs flag into the current step's error register.
func (th *Thread) Raise(flag rterr.Mask) { th.errFlags = th.errFlags.Set(flag) }

// Errors reports the current step's monotone error mask.
func (th *Thread) Errors() rterr.Mask { return th.errFlags }

// SetDebugName sets the thread's host-visible debug name.
func (th *Thread) SetDebugName(name string) { th.debugName = name }

func (th *Thread) checkDeadlines() {
	now := timeNow()
	if !th.stepDeadline.IsZero() && !now.Before(th.stepDeadline) {
		th.Raise(rterr.QUOTA)
	}
	if !th.checkpointDeadline.IsZero() && !now.Before(th.checkpointDeadline) {
		th.Raise(rterr.QUOTA)
	}
}

// StepTimeout sets a deadline after which the step is marked QUOTA;
// 0 cancels (spec.md §4.E).
func (th *Thread) StepTimeout(d time.Duration) {
	if d <= 0 {
		th.stepDeadline = time.Time{}
		return
	}
	th.stepDeadline = timeNow().Add(d)
}

// CheckpointTimeout sets a deadline after which the current checkpoint
// interval is marked QUOTA; 0 cancels.
func (th *Thread) CheckpointTimeout(d time.Duration) {
	if d <= 0 {
		th.checkpointDeadline = time.Time{}
		return
	}
	th.checkpointDeadline = timeNow().Add(d)
}

// timeNow is indirected so tests can't accidentally rely on wall-clock
// nondeterminism creeping into deadline logic beyond what's needed.
var timeNow = time.Now
