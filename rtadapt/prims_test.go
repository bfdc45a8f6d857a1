package rtadapt_test

import (
	"testing"

	"code.hybscloud.com/glasrt/engine"
	"code.hybscloud.com/glasrt/namespace"
	"code.hybscloud.com/glasrt/register"
	"code.hybscloud.com/glasrt/rtadapt"
	"code.hybscloud.com/glasrt/value"
)

func newPrimThread(t *testing.T) *engine.Thread {
	t.Helper()
	ns := rtadapt.NsLoadPrims(namespace.Empty(), "prim.")
	store := register.NewStore()
	pool := engine.NewPool(2)
	return engine.New(store, pool, ns)
}

func TestPrimSwap(t *testing.T) {
	th := newPrimThread(t)
	th.Push(value.IntToValue(1))
	th.Push(value.IntToValue(2))
	if err := th.Call("prim.swap", ""); err.Any() {
		t.Fatalf("Call: %v", err)
	}
	top, err := th.Pop()
	if err.Any() {
		t.Fatalf("Pop: %v", err)
	}
	if n, _ := value.ValueToInt64(top); n != 1 {
		t.Fatalf("top=%v, want 1", top)
	}
}

func TestPrimMkpUnp(t *testing.T) {
	th := newPrimThread(t)
	th.Push(value.IntToValue(10))
	th.Push(value.IntToValue(20))
	if err := th.Call("prim.mkp", ""); err.Any() {
		t.Fatalf("mkp: %v", err)
	}
	if err := th.Call("prim.unp", ""); err.Any() {
		t.Fatalf("unp: %v", err)
	}
	right, err := th.Pop()
	if err.Any() {
		t.Fatalf("Pop: %v", err)
	}
	left, err := th.Pop()
	if err.Any() {
		t.Fatalf("Pop: %v", err)
	}
	ln, _ := value.ValueToInt64(left)
	rn, _ := value.ValueToInt64(right)
	if ln != 10 || rn != 20 {
		t.Fatalf("got (%d,%d), want (10,20)", ln, rn)
	}
}

func TestPrimDictInsertLookup(t *testing.T) {
	th := newPrimThread(t)
	th.Push(value.Leaf) // empty record
	th.Push(value.LabelOf("name"))
	th.Push(value.IntToValue(7))
	if err := th.Call("prim.dict-insert", ""); err.Any() {
		t.Fatalf("dict-insert: %v", err)
	}
	th.Push(value.LabelOf("name"))
	if err := th.Call("prim.dict-lookup", ""); err.Any() {
		t.Fatalf("dict-lookup: %v", err)
	}
	top, err := th.Pop()
	if err.Any() {
		t.Fatalf("Pop: %v", err)
	}
	if n, _ := value.ValueToInt64(top); n != 7 {
		t.Fatalf("top=%v, want 7", top)
	}
}

func TestPrimIntegerPeekRejectsNonInteger(t *testing.T) {
	th := newPrimThread(t)
	th.Push(value.Pair(value.Leaf, value.Leaf))
	if err := th.Call("prim.integer-peek", ""); !err.Any() {
		t.Fatal("integer-peek on a pair should fail")
	}
}

// Push 200 (i32), then peek as i8 -> FAIL (out of range); peek as i64 ->
// 200. Grounded on spec.md §8's E1 scenario, adapted to a magnitude that
// actually falls outside i8's signed range: 42 happens to fit every
// width down to i8, so it can't itself distinguish a width-bounded peek
// from an unbounded one.
func TestPrimIntegerPushPeekRespectsRequestedWidth(t *testing.T) {
	th := newPrimThread(t)
	th.Push(value.IntToValue(200))
	if err := th.Call("prim.integer-push-i32", ""); err.Any() {
		t.Fatalf("integer-push-i32: %v", err)
	}

	if err := th.Call("prim.integer-peek-i8", ""); !err.Any() {
		t.Fatal("integer-peek-i8 on 200 should fail: 200 exceeds signed i8's [-128,127]")
	}

	// The failed narrow peek must not have popped the value.
	if err := th.Call("prim.integer-peek-i64", ""); err.Any() {
		t.Fatalf("integer-peek-i64: %v", err)
	}
	top, err := th.Pop()
	if err.Any() {
		t.Fatalf("Pop: %v", err)
	}
	if n, ok := value.ValueToInt64(top); !ok || n != 200 {
		t.Fatalf("top=%v, want 200", top)
	}
}
