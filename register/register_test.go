package register_test

import (
	"testing"

	"code.hybscloud.com/glasrt/register"
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

func TestWriteThenReadOwnWrite(t *testing.T) {
	store := register.NewStore()
	txn := store.Begin()
	if err := txn.Write("x", value.IntToValue(1)); err.Any() {
		t.Fatalf("Write: %v", err)
	}
	got, err := txn.Read("x")
	if err.Any() {
		t.Fatalf("Read: %v", err)
	}
	if n, ok := value.ValueToInt64(got); !ok || n != 1 {
		t.Fatalf("Read=%v, want 1", got)
	}
}

func TestCommitVisibleToNextTxn(t *testing.T) {
	store := register.NewStore()
	t1 := store.Begin()
	if err := t1.Write("x", value.IntToValue(5)); err.Any() {
		t.Fatalf("Write: %v", err)
	}
	if err := t1.Commit(); err.Any() {
		t.Fatalf("Commit: %v", err)
	}
	t2 := store.Begin()
	got, err := t2.Read("x")
	if err.Any() {
		t.Fatalf("Read: %v", err)
	}
	if n, ok := value.ValueToInt64(got); !ok || n != 5 {
		t.Fatalf("Read=%v, want 5", got)
	}
}

func TestConcurrentWriteConflict(t *testing.T) {
	store := register.NewStore()
	t1 := store.Begin()
	t2 := store.Begin()

	if _, err := t1.Read("x"); err.Any() {
		t.Fatalf("t1 Read: %v", err)
	}
	if _, err := t2.Read("x"); err.Any() {
		t.Fatalf("t2 Read: %v", err)
	}
	if err := t1.Write("x", value.IntToValue(1)); err.Any() {
		t.Fatalf("t1 Write: %v", err)
	}
	if err := t1.Commit(); err.Any() {
		t.Fatalf("t1 Commit: %v", err)
	}

	if err := t2.Write("x", value.IntToValue(2)); err.Any() {
		t.Fatalf("t2 Write: %v", err)
	}
	if err := t2.Commit(); !err.Has(rterr.CONFLICT) {
		t.Fatalf("t2 Commit should CONFLICT (t1 already bumped the version), got %v", err)
	}
}

func TestQueueWritesFromConcurrentTxnsDoNotConflict(t *testing.T) {
	store := register.NewStore()
	t1 := store.Begin()
	t2 := store.Begin()

	t1.QueueWrite("q", value.FromSlice([]*value.Value{value.IntToValue(1)}))
	t2.QueueWrite("q", value.FromSlice([]*value.Value{value.IntToValue(2)}))

	if err := t1.Commit(); err.Any() {
		t.Fatalf("t1 Commit: %v", err)
	}
	if err := t2.Commit(); err.Any() {
		t.Fatalf("t2 Commit should not conflict (queue-write is commutative): %v", err)
	}

	t3 := store.Begin()
	items, err := t3.QueueRead("q", 2)
	if err.Any() {
		t.Fatalf("QueueRead: %v", err)
	}
	if value.Len(items) != 2 {
		t.Fatalf("queue has %d items, want 2 (both writers' items spliced in)", value.Len(items))
	}
}

func TestQueueReadUnderflow(t *testing.T) {
	store := register.NewStore()
	txn := store.Begin()
	if _, err := txn.QueueRead("empty", 1); !err.Has(rterr.DATA_QTY) {
		t.Fatalf("QueueRead on empty queue should fail DATA_QTY, got %v", err)
	}
}

func TestBagReadRemovesExactlyOne(t *testing.T) {
	store := register.NewStore()
	seed := store.Begin()
	seed.BagWrite("bag", value.IntToValue(1))
	seed.BagWrite("bag", value.IntToValue(2))
	if err := seed.Commit(); err.Any() {
		t.Fatalf("seed Commit: %v", err)
	}

	txn := store.Begin()
	first, err := txn.BagRead("bag")
	if err.Any() {
		t.Fatalf("BagRead: %v", err)
	}
	second, err := txn.BagRead("bag")
	if err.Any() {
		t.Fatalf("BagRead: %v", err)
	}
	if value.Equal(first, second) {
		t.Fatal("two BagReads on a 2-item bag should return distinct items")
	}
	if _, err := txn.BagRead("bag"); !err.Has(rterr.DATA_QTY) {
		t.Fatal("BagRead on an exhausted bag should fail DATA_QTY")
	}
}

func TestConcurrentBagReadsFromSufficientBagAllCommit(t *testing.T) {
	store := register.NewStore()
	seed := store.Begin()
	seed.BagWrite("bag", value.IntToValue(1))
	seed.BagWrite("bag", value.IntToValue(2))
	seed.BagWrite("bag", value.IntToValue(3))
	if err := seed.Commit(); err.Any() {
		t.Fatalf("seed Commit: %v", err)
	}

	t1 := store.Begin()
	t2 := store.Begin()
	t3 := store.Begin()

	got1, err := t1.BagRead("bag")
	if err.Any() {
		t.Fatalf("t1 BagRead: %v", err)
	}
	got2, err := t2.BagRead("bag")
	if err.Any() {
		t.Fatalf("t2 BagRead: %v", err)
	}
	got3, err := t3.BagRead("bag")
	if err.Any() {
		t.Fatalf("t3 BagRead: %v", err)
	}

	// Each transaction snapshotted the bag independently before any of
	// them committed, so a stale base version must not spuriously
	// conflict a pure bag-read against another pure bag-read (spec.md
	// §8 property 8, §4.C "bag-read/bag-read = ok*").
	if err := t1.Commit(); err.Any() {
		t.Fatalf("t1 Commit should not conflict: %v", err)
	}
	if err := t2.Commit(); err.Any() {
		t.Fatalf("t2 Commit should not conflict: %v", err)
	}
	if err := t3.Commit(); err.Any() {
		t.Fatalf("t3 Commit should not conflict: %v", err)
	}

	seen := map[int64]bool{}
	for _, v := range []*value.Value{got1, got2, got3} {
		n, ok := value.ValueToInt64(v)
		if !ok {
			t.Fatalf("BagRead returned non-integer %v", v)
		}
		seen[n] = true
	}
	if len(seen) != 3 {
		t.Fatalf("three concurrent bag-reads from a 3-item bag should each observe a distinct item, got %v", seen)
	}

	drain := store.Begin()
	if _, err := drain.BagRead("bag"); !err.Has(rterr.DATA_QTY) {
		t.Fatal("bag should be exhausted after all three reads committed")
	}
}

func TestConcurrentBagReadFromInsufficientBagConflicts(t *testing.T) {
	store := register.NewStore()
	seed := store.Begin()
	seed.BagWrite("bag", value.IntToValue(1))
	if err := seed.Commit(); err.Any() {
		t.Fatalf("seed Commit: %v", err)
	}

	t1 := store.Begin()
	t2 := store.Begin()
	if _, err := t1.BagRead("bag"); err.Any() {
		t.Fatalf("t1 BagRead: %v", err)
	}
	if _, err := t2.BagRead("bag"); err.Any() {
		t.Fatalf("t2 BagRead: %v", err)
	}
	if err := t1.Commit(); err.Any() {
		t.Fatalf("t1 Commit: %v", err)
	}
	if err := t2.Commit(); !err.Has(rterr.CONFLICT) {
		t.Fatal("second bag-read on a 1-item bag should genuinely CONFLICT, not silently succeed")
	}
}

func TestConflictsTable(t *testing.T) {
	if register.Conflicts(register.QueueWrite, register.QueueWrite) {
		t.Fatal("QueueWrite/QueueWrite should not conflict (both splice commutatively)")
	}
	if !register.Conflicts(register.Write, register.Read) {
		t.Fatal("Write/Read should conflict")
	}
	if register.Conflicts(register.BagRead, register.BagRead) {
		t.Fatal("BagRead/BagRead should not conflict (physically distinct removals)")
	}
}
