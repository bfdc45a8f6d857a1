package value

import "code.hybscloud.com/glasrt/refcount"

// PushBinaryCopy builds a binary list value that owns a private copy of bs.
// This is the default, safe path; BinaryFromBytes is its underlying
// primitive (value/list.go).
func PushBinaryCopy(bs []byte) *Value { return BinaryFromBytes(bs) }

// PushBinaryZeroCopy builds a binary list value that aliases the
// host-owned buffer bs directly, without copying, tracked by handle
// (typically refcount.Managed over the buffer's release). This is
// grounded on original_source/c/src/glas_internal.h's pinned-buffer
// "glas_refct pin" field: the runtime accepts a foreign buffer alongside
// a refcount instead of copying it onto the value heap. handle.Incref is
// called once on behalf of the returned Value.
//
// Callers must not mutate bs afterward: the returned Value is presumed
// immutable like any other value.
func PushBinaryZeroCopy(bs []byte, handle refcount.Handle) *Value {
	handle.Incref()
	return &Value{kind: KindBinary, bin: bs, pin: handle, hasPin: true, eph: Persistent}
}

// PeekBinary returns the bytes of v, flattening whatever rope shape it
// was built from (Concat/Take spines, Array/Branch spines of byte
// stems), and true, if v is wholly a valid binary. The single-node
// KindBinary case is zero-copy; any other valid-binary shape is
// flattened into a fresh copy. On an invalid shape, returns whatever
// prefix was successfully decoded before the first non-byte element,
// and false — spec.md §4.A "peek returns true iff the list was wholly
// consumed and was a valid binary; a partial result with false is
// returned for partially-valid data." This is what lets a rope built by
// Reverse/Append/Cons (never itself a KindBinary node) still round-trip
// through binary-push/binary-peek (spec.md §8 scenario E2).
func PeekBinary(v *Value) ([]byte, bool) {
	if v.kind == KindBinary {
		return v.bin, true
	}
	var out []byte
	cur := v
	for {
		if IsUnit(cur) {
			return out, true
		}
		if cur.kind == KindBinary {
			out = append(out, cur.bin...)
			return out, true
		}
		if cur.kind == KindSeal || cur.kind == KindPtr {
			// opaque: step() reports ok=false the same way Leaf does, but
			// this is not a (possibly-empty) valid binary tail.
			return out, false
		}
		h, t, ok := step(cur)
		if !ok {
			return out, true
		}
		b, byteOk := ByteOf(h)
		if !byteOk {
			return out, false
		}
		out = append(out, b)
		cur = t
	}
}

// ReleaseBinary decrements the pin handle of a value that carries one
// (a zero-copy binary from PushBinaryZeroCopy, or a Ptr value from
// PtrValue), if any. Safe to call on any value; a no-op unless it
// carries a pin. The data stack (value/stack.go) calls this when such a
// value is dropped.
func ReleaseBinary(v *Value) {
	if v.hasPin {
		v.pin.Decref()
	}
}
