// Package register implements the globally-addressable register store of
// spec.md §4.C: per-register optimistic versioning over *value.Value,
// with read/write/swap/queue/bag access modes and the associated
// conflict table. Grounded on the same code.hybscloud.com/atomix counter
// idiom the teacher (hayabusa-cloud-sess) uses for its own step/commit
// bookkeeping (session.go), applied here to per-register version numbers
// instead of per-session state.
package register

import (
	"math/rand/v2"
	"sort"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

// AccessMode is one of the seven access disciplines of spec.md §4.C.
type AccessMode uint8

const (
	Read AccessMode = iota
	Write
	Swap
	QueueRead
	QueueWrite
	BagRead
	BagWrite
	numModes
)

// conflictMatrix encodes the table of spec.md §4.C. Queue and bag modes
// are never mixed on the same register in practice; a pairing the table
// leaves blank ("—") is treated as conflicting, the conservative choice.
var conflictMatrix = [numModes][numModes]bool{
	Read:        {Read: false, Write: true, Swap: true, QueueRead: true, QueueWrite: false, BagRead: true, BagWrite: false},
	Write:       {Read: true, Write: true, Swap: true, QueueRead: true, QueueWrite: true, BagRead: true, BagWrite: true},
	Swap:        {Read: true, Write: true, Swap: true, QueueRead: true, QueueWrite: true, BagRead: true, BagWrite: true},
	QueueRead:   {Read: true, Write: true, Swap: true, QueueRead: true, QueueWrite: false, BagRead: true, BagWrite: true},
	QueueWrite:  {Read: false, Write: true, Swap: true, QueueRead: false, QueueWrite: false, BagRead: true, BagWrite: true},
	BagRead:     {Read: true, Write: true, Swap: true, QueueRead: true, QueueWrite: true, BagRead: false, BagWrite: false},
	BagWrite:    {Read: false, Write: true, Swap: true, QueueRead: true, QueueWrite: true, BagRead: false, BagWrite: false},
}

// Conflicts reports whether accesses a (by one transaction) and b (by a
// concurrent transaction) to the same register conflict.
func Conflicts(a, b AccessMode) bool { return conflictMatrix[a][b] }

// Register is one logical cell: a committed value plus an optimistic
// version counter bumped on every commit that changes it.
type Register struct {
	mu        sync.Mutex
	committed *value.Value
	version   atomix.Uint64
	sealKey   *value.SealKey // lazily minted; see SealKeyFor
}

func newRegister() *Register { return &Register{committed: value.Leaf} }

// sealKeyLazy returns this register's seal key, minting it on first use.
// spec.md §4.A names "the register identity" itself as a seal key, so
// every caller naming the same register by name must observe the same
// *value.SealKey for unseal to ever succeed.
func (r *Register) sealKeyLazy() *value.SealKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealKey == nil {
		r.sealKey = value.NewSealKey()
	}
	return r.sealKey
}

func (r *Register) snapshot() (*value.Value, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committed, r.version.Load()
}

// Store is the process-wide register table. Registers materialize lazily
// on first access, per spec.md §4.C; there is no persistence layer
// (spec.md §9 Non-goals) — Store is process-memory only.
type Store struct {
	mu   sync.RWMutex
	regs map[string]*Register
}

// NewStore returns an empty register store.
func NewStore() *Store {
	return &Store{regs: make(map[string]*Register)}
}

// SealKeyFor returns the seal key identified by register name, minting
// it on first use, per spec.md §4.A's seal(v, keyReg)/unseal(v, keyReg)
// naming "the register identity" as the key itself.
func (s *Store) SealKeyFor(name string) *value.SealKey {
	return s.reg(name).sealKeyLazy()
}

func (s *Store) reg(name string) *Register {
	s.mu.RLock()
	r := s.regs[name]
	s.mu.RUnlock()
	if r != nil {
		return r
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.regs[name]; r != nil {
		return r
	}
	r = newRegister()
	s.regs[name] = r
	return r
}

type queueState struct {
	remaining *value.Value // committed items not yet consumed by this txn
	writes    *value.Value // items appended by this txn, spliced at commit
	inited    bool
}

type bagState struct {
	remaining *value.Value
	writes    *value.Value
	inited    bool

	reads   []*value.Value // items this txn removed, for the pure-BagRead commit fast path
	spliced *value.Value   // live-value result of that fast path, computed during Commit's check pass
}

type access struct {
	mode        AccessMode
	touched     bool
	multiMode   bool // touched with more than one distinct mode this txn
	baseVersion uint64
	staged      *value.Value // pending write/swap value
	hasStaged   bool
	queue       queueState
	bag         bagState
}

// recordMode notes that this transaction used mode m against the
// register. A register touched with more than one distinct mode in the
// same transaction loses eligibility for the commutative-write fast path
// at Commit (commutativeOnly), and instead falls back to the plain
// version check.
func (a *access) recordMode(m AccessMode) {
	if !a.touched {
		a.mode = m
		a.touched = true
		return
	}
	if a.mode != m {
		a.multiMode = true
	}
}

// Txn is one transaction's view of the register store: reads/writes are
// staged here and only applied to the Store on Commit.
type Txn struct {
	store    *Store
	accesses map[string]*access
	order    []string
}

// Begin opens a new transaction against s.
func (s *Store) Begin() *Txn {
	return &Txn{store: s, accesses: make(map[string]*access)}
}

func (t *Txn) access(name string) *access {
	a, ok := t.accesses[name]
	if !ok {
		a = &access{}
		t.accesses[name] = a
		t.order = append(t.order, name)
	}
	return a
}

func (t *Txn) touchBase(name string, a *access) (*value.Value, uint64) {
	v, ver := t.store.reg(name).snapshot()
	if !a.hasStaged && !a.queue.inited && !a.bag.inited {
		a.baseVersion = ver
	}
	return v, ver
}

// Read returns the register's value as observed by this transaction
// (read-your-own-writes).
func (t *Txn) Read(name string) (*value.Value, rterr.Mask) {
	a := t.access(name)
	a.recordMode(Read)
	if a.hasStaged {
		return a.staged, 0
	}
	v, _ := t.touchBase(name, a)
	return v, 0
}

// Write overwrites the register, staged until Commit.
func (t *Txn) Write(name string, v *value.Value) rterr.Mask {
	a := t.access(name)
	a.recordMode(Write)
	t.touchBase(name, a)
	a.staged = v
	a.hasStaged = true
	return 0
}

// Swap returns the current value and stages v as the new one.
func (t *Txn) Swap(name string, v *value.Value) (*value.Value, rterr.Mask) {
	old, _ := t.Read(name)
	a := t.access(name)
	a.recordMode(Swap)
	a.staged = v
	a.hasStaged = true
	return old, 0
}

func (t *Txn) ensureQueue(name string, a *access) {
	if a.queue.inited {
		return
	}
	v, _ := t.touchBase(name, a)
	a.queue.remaining = v
	a.queue.writes = value.Leaf
	a.queue.inited = true
}

// QueueRead removes and returns the front n items of the queue register,
// failing with DATA_QTY if fewer than n are available.
func (t *Txn) QueueRead(name string, n int) (*value.Value, rterr.Mask) {
	a := t.access(name)
	t.ensureQueue(name, a)
	if value.Len(a.queue.remaining) < n {
		return nil, rterr.Mask(0).Set(rterr.DATA_QTY)
	}
	items, rest := value.SplitAt(a.queue.remaining, n)
	a.queue.remaining = rest
	a.recordMode(QueueRead)
	return items, 0
}

// QueueUnread pushes items back onto the head of the queue, within the
// same step (spec.md §4.C).
func (t *Txn) QueueUnread(name string, items *value.Value) {
	a := t.access(name)
	t.ensureQueue(name, a)
	a.queue.remaining = value.Append(items, a.queue.remaining)
}

// QueueWrite appends items to the tail of the queue register, spliced
// onto the committed queue at Commit time — concurrent queue-writes from
// other transactions never conflict with this one.
func (t *Txn) QueueWrite(name string, items *value.Value) {
	a := t.access(name)
	t.ensureQueue(name, a)
	a.queue.writes = value.Append(a.queue.writes, items)
	a.recordMode(QueueWrite)
}

func (t *Txn) ensureBag(name string, a *access) {
	if a.bag.inited {
		return
	}
	v, _ := t.touchBase(name, a)
	a.bag.remaining = v
	a.bag.writes = value.Leaf
	a.bag.inited = true
}

// BagRead removes and returns a non-deterministically chosen item from
// the bag register, failing with DATA_QTY if empty.
func (t *Txn) BagRead(name string) (*value.Value, rterr.Mask) {
	a := t.access(name)
	t.ensureBag(name, a)
	n := value.Len(a.bag.remaining)
	if n == 0 {
		return nil, rterr.Mask(0).Set(rterr.DATA_QTY)
	}
	idx := rand.IntN(n)
	item, _ := value.Index(a.bag.remaining, idx)
	before, afterIncluding := value.SplitAt(a.bag.remaining, idx)
	_, after := value.SplitAt(afterIncluding, 1)
	a.bag.remaining = value.Append(before, after)
	a.bag.reads = append(a.bag.reads, item)
	a.recordMode(BagRead)
	return item, 0
}

// BagWrite adds item to the bag register, spliced in at Commit time.
func (t *Txn) BagWrite(name string, item *value.Value) {
	a := t.access(name)
	t.ensureBag(name, a)
	a.bag.writes = value.Append(a.bag.writes, value.Cons(item, value.Leaf))
	a.recordMode(BagWrite)
}

// Commit validates every accessed register's version against this
// transaction's base snapshot and, if none conflict, atomically applies
// all staged changes. On CONFLICT, nothing is applied; the caller (the
// step engine) is expected to abort and, per spec.md §4.E, retry.
func (t *Txn) Commit() rterr.Mask {
	if len(t.order) == 0 {
		return 0
	}
	names := append([]string(nil), t.order...)
	sort.Strings(names) // deterministic lock order avoids deadlock across concurrent commits
	regs := make([]*Register, len(names))
	for i, n := range names {
		regs[i] = t.store.reg(n)
	}
	for _, r := range regs {
		r.mu.Lock()
	}
	defer func() {
		for _, r := range regs {
			r.mu.Unlock()
		}
	}()

	for i, n := range names {
		a := t.accesses[n]
		r := regs[i]
		if a.commutativeOnly() {
			if a.mode == BagRead {
				// A pure bag-read must still see enough live items to
				// satisfy what it removed; unlike queue/bag-write this
				// can genuinely fail (spec.md §4.C "bag-read/bag-read =
				// ok*" — ok as long as the bag still holds enough).
				spliced, ok := bagRemoveAll(r.committed, a.bag.reads)
				if !ok {
					return rterr.Mask(0).Set(rterr.CONFLICT)
				}
				a.bag.spliced = spliced
			}
			continue // queue-write/bag-write/bag-read splice regardless of version drift
		}
		if r.version.Load() != a.baseVersion {
			return rterr.Mask(0).Set(rterr.CONFLICT)
		}
	}

	for i, n := range names {
		a := t.accesses[n]
		r := regs[i]
		switch {
		case a.hasStaged:
			r.committed = a.staged
		case a.queue.inited:
			base := r.committed
			if !a.commutativeOnly() {
				base = a.queue.remaining
			}
			r.committed = value.Append(base, a.queue.writes)
		case a.bag.inited:
			switch {
			case a.commutativeOnly() && a.mode == BagRead:
				r.committed = a.bag.spliced
			case a.commutativeOnly():
				r.committed = value.Append(r.committed, a.bag.writes)
			default:
				r.committed = value.Append(a.bag.remaining, a.bag.writes)
			}
		}
		if a.hasStaged || a.queue.inited || a.bag.inited {
			r.version.Add(1) // a pure read leaves the register unchanged
		}
	}
	return 0
}

// commutativeOnly reports whether a's only interaction with its register
// this transaction was queue-write, bag-write, and/or bag-read: all three
// splice against the live committed value at Commit rather than a stale
// snapshot, so they tolerate concurrent version drift from other
// transactions touching the same register. Bag-read still needs a
// liveness check (see Commit) since, unlike a write, it can genuinely run
// out of matching items.
func (a *access) commutativeOnly() bool {
	if a.hasStaged || a.multiMode {
		return false
	}
	return a.mode == QueueWrite || a.mode == BagWrite || a.mode == BagRead
}

// bagRemoveAll removes one occurrence of each item in reads from
// committed's live multiset, matching by value.Equal (a bag has no
// identity beyond value, so "the same item" is "an equal-valued item").
// It reports whether every read had a live match; on failure committed is
// returned unmodified.
func bagRemoveAll(committed *value.Value, reads []*value.Value) (*value.Value, bool) {
	items := value.ToSlice(committed)
	for _, want := range reads {
		idx := -1
		for i, v := range items {
			if value.Equal(v, want) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return committed, false
		}
		items = append(items[:idx], items[idx+1:]...)
	}
	return value.FromSlice(items), true
}
