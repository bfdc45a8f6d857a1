package engine

import (
	"code.hybscloud.com/glasrt/refcount"
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

// The Thread methods below round out spec.md §6's host-facing "data"
// surface (sealing, push/peek for binaries and integers, ptr-as-
// abstract-value) plus the list/bitstring operations and type
// predicates spec.md §3/§4.A name but rtadapt's namespace-callable
// primitives (a distinct, program-facing surface, spec.md §4.G) never
// wired: length/split/append/reverse/invert/bit-byte conversion and the
// is-unit/is-pair/... family. Each follows the same fail-and-fold
// pattern as ops.go's stack/register wrappers.

// Seal wraps the top of the data stack in an opaque envelope keyed by
// register name's identity (spec.md §4.A "seal(v, keyReg) wraps v in a
// non-observable envelope keyed by the register identity"). The key
// itself lives on the register (register.Store.SealKeyFor), so any
// thread naming the same register observes the same key.
func (th *Thread) Seal(name string, linear bool) rterr.Mask {
	v, m := th.Pop()
	if m.Any() {
		return m
	}
	key := th.store.SealKeyFor(name)
	th.Push(value.Seal(v, key, linear))
	return 0
}

// Unseal reveals the top of the data stack's wrapped value iff it was
// sealed under register name's key, failing DATA_SEALED (and leaving
// the sealed envelope on the stack) otherwise.
func (th *Thread) Unseal(name string) rterr.Mask {
	v, m := th.Pop()
	if m.Any() {
		return m
	}
	key := th.store.SealKeyFor(name)
	inner, ok := value.Unseal(v, key)
	if !ok {
		th.Push(v)
		return th.fail(rterr.Mask(0).Set(rterr.DATA_SEALED))
	}
	th.Push(inner)
	return 0
}

// BinaryPush pops the top of the stack and re-pushes it normalized to a
// single binary node, flattening whatever rope shape it was built from
// (spec.md §4.A "zero-copy peek may need to flatten a rope"), failing
// DATA_TYPE and restoring the stack if it isn't a valid binary shape.
func (th *Thread) BinaryPush() rterr.Mask {
	v, m := th.Pop()
	if m.Any() {
		return m
	}
	bs, ok := value.PeekBinary(v)
	if !ok {
		th.Push(v)
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	th.Push(value.PushBinaryCopy(bs))
	return 0
}

// BinaryPeek checks, without popping, that the top of the stack is a
// valid binary shape.
func (th *Thread) BinaryPeek() rterr.Mask {
	v, m := th.Stack.Peek()
	if m.Any() {
		return th.fail(m)
	}
	if _, ok := value.PeekBinary(v); !ok {
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	return 0
}

// IntegerPush pops the top of the stack, checks it decodes as an
// integer fitting [bitWidth, signed], and re-pushes its canonical
// encoding, failing DATA_TYPE and restoring the stack otherwise
// (spec.md §4.A, mirroring rtadapt/prims.go's width-suffixed
// integer-push family on the host-facing Thread API directly).
func (th *Thread) IntegerPush(bitWidth int, signed bool) rterr.Mask {
	v, m := th.Pop()
	if m.Any() {
		return m
	}
	n, ok := value.PeekInt(v, bitWidth, signed)
	if !ok {
		th.Push(v)
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	th.Push(value.IntToValue(n))
	return 0
}

// IntegerPeek checks, without popping, that the top of the stack
// decodes as an integer fitting [bitWidth, signed].
func (th *Thread) IntegerPeek(bitWidth int, signed bool) rterr.Mask {
	v, m := th.Stack.Peek()
	if m.Any() {
		return th.fail(m)
	}
	if _, ok := value.PeekInt(v, bitWidth, signed); !ok {
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	return 0
}

// PtrPush wraps a host-owned or runtime-managed handle as an opaque
// value on top of the stack (spec.md §6 "ptr-as-abstract-value").
func (th *Thread) PtrPush(h refcount.Handle) { th.Push(value.PtrValue(h)) }

// PtrPeek returns the handle wrapped by the top of the stack without
// popping it, failing DATA_TYPE if the top isn't a Ptr value.
func (th *Thread) PtrPeek() (refcount.Handle, rterr.Mask) {
	v, m := th.Stack.Peek()
	if m.Any() {
		return refcount.Handle{}, th.fail(m)
	}
	h, ok := value.PeekPtr(v)
	if !ok {
		return refcount.Handle{}, th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	return h, 0
}

// ListLength pushes the element count of the top-of-stack list without
// popping it, failing DATA_TYPE if the top isn't list-shaped.
func (th *Thread) ListLength() rterr.Mask {
	v, m := th.Stack.Peek()
	if m.Any() {
		return th.fail(m)
	}
	if !value.IsList(v) {
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	th.Push(value.IntToValue(int64(value.Len(v))))
	return 0
}

// ListSplit pops n (top) and a list (below), pushing Take(list, n) then
// Drop(list, n) — spec.md §3's rope split, "O(log n) ... split".
func (th *Thread) ListSplit() rterr.Mask {
	nv, m := th.Pop()
	if m.Any() {
		return m
	}
	n, ok := value.ValueToInt64(nv)
	if !ok || n < 0 {
		th.Push(nv)
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	list, m := th.Pop()
	if m.Any() {
		th.Push(nv)
		return m
	}
	if !value.IsList(list) {
		th.Push(list)
		th.Push(nv)
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	head, tail := value.SplitAt(list, int(n))
	th.Push(head)
	th.Push(tail)
	return 0
}

// ListAppend pops two lists (r on top, l below) and pushes their rope
// concatenation l++r.
func (th *Thread) ListAppend() rterr.Mask {
	r, m := th.Pop()
	if m.Any() {
		return m
	}
	l, m := th.Pop()
	if m.Any() {
		th.Push(r)
		return m
	}
	if !value.IsList(l) || !value.IsList(r) {
		th.Push(l)
		th.Push(r)
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	th.Push(value.Append(l, r))
	return 0
}

// ListReverse pops a list and pushes it with elements in reverse order.
func (th *Thread) ListReverse() rterr.Mask {
	v, m := th.Pop()
	if m.Any() {
		return m
	}
	if !value.IsList(v) {
		th.Push(v)
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	th.Push(value.Reverse(v))
	return 0
}

// BitsInvert pops a bitstring and pushes it with every bit flipped.
func (th *Thread) BitsInvert() rterr.Mask {
	v, m := th.Pop()
	if m.Any() {
		return m
	}
	if !value.IsBitstring(v) {
		th.Push(v)
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	th.Push(value.Invert(v))
	return 0
}

// BitsToBytes pops an 8k-bit bitstring and pushes its k-byte binary
// encoding, failing DATA_TYPE (and restoring the stack) if its length
// isn't a multiple of 8.
func (th *Thread) BitsToBytes() rterr.Mask {
	v, m := th.Pop()
	if m.Any() {
		return m
	}
	out, err := value.BitsToBytes(v)
	if err != nil {
		th.Push(v)
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	th.Push(out)
	return 0
}

// BytesToBits pops a binary and pushes its bitstring encoding (each
// byte MSB-first), failing DATA_TYPE if the top isn't a valid binary.
func (th *Thread) BytesToBits() rterr.Mask {
	v, m := th.Pop()
	if m.Any() {
		return m
	}
	if !value.IsBinary(v) {
		th.Push(v)
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	th.Push(value.BytesToBits(v))
	return 0
}

// boolValue encodes a predicate result the same way step() encodes a
// bitstring's 1/0 bits: Right(Leaf) for true, Left(Leaf) for false.
func boolValue(b bool) *value.Value {
	if b {
		return value.Right(value.Leaf)
	}
	return value.Left(value.Leaf)
}

// typePredicate peeks the top of the stack and pushes boolValue(test(top)),
// leaving the original value in place beneath the result.
func (th *Thread) typePredicate(test func(*value.Value) bool) rterr.Mask {
	v, m := th.Stack.Peek()
	if m.Any() {
		return th.fail(m)
	}
	th.Push(boolValue(test(v)))
	return 0
}

// Type predicates of spec.md §4.A "is-unit, is-pair, is-inl/inr,
// is-list, is-binary, is-bitstring, is-dict, is-rational".
func (th *Thread) IsUnitPred() rterr.Mask      { return th.typePredicate(value.IsUnit) }
func (th *Thread) IsPairPred() rterr.Mask      { return th.typePredicate(value.IsPair) }
func (th *Thread) IsInlPred() rterr.Mask       { return th.typePredicate(value.IsInl) }
func (th *Thread) IsInrPred() rterr.Mask       { return th.typePredicate(value.IsInr) }
func (th *Thread) IsListPred() rterr.Mask      { return th.typePredicate(value.IsList) }
func (th *Thread) IsBinaryPred() rterr.Mask    { return th.typePredicate(value.IsBinary) }
func (th *Thread) IsBitstringPred() rterr.Mask { return th.typePredicate(value.IsBitstring) }
func (th *Thread) IsDictPred() rterr.Mask      { return th.typePredicate(value.IsDict) }
func (th *Thread) IsRationalPred() rterr.Mask  { return th.typePredicate(value.IsRational) }
