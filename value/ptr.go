package value

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/glasrt/refcount"
)

// ptrIDSeq mints the wrap-identity every PtrValue call stamps onto its
// result, since an opaque refcount.Handle's wrapped `any` object isn't
// safely comparable/hashable in general (grounded on the same
// atomix.Uint64 counter idiom value/seal.go uses for SealKey identity).
var ptrIDSeq atomix.Uint64

// PtrValue wraps a host-owned or runtime-managed handle as an opaque,
// non-decomposable value, per spec.md §6's thread-level "ptr-as-abstract-
// value": a foreign pointer crossing the API boundary needs to sit on
// the data stack like any other value without the runtime attempting to
// observe or decompose it. handle.Incref is called once on behalf of the
// returned Value, mirroring PushBinaryZeroCopy's pinned-buffer contract.
func PtrValue(handle refcount.Handle) *Value {
	handle.Incref()
	return &Value{kind: KindPtr, pin: handle, hasPin: true, stemBits: ptrIDSeq.Add(1), eph: Ephemeral}
}

// PeekPtr returns the handle wrapped by v, and true, if v is a Ptr value.
func PeekPtr(v *Value) (refcount.Handle, bool) {
	if v.kind != KindPtr {
		return refcount.Handle{}, false
	}
	return v.pin, true
}

// IsPtr reports whether v is an opaque wrapped pointer value.
func IsPtr(v *Value) bool { return v.kind == KindPtr }
