// Package refcount provides a generic reference-counted handle for
// host-owned buffers and foreign opaque pointers, per spec.md §4.B.
//
// Grounded on original_source/c/src/glas_internal.h's `glas_refct pin`
// field (used for binaries, arrays, and foreign pointers), and on
// code.hybscloud.com/atomix for the atomic count itself, following the
// same "smallest atomic primitive that does the job" idiom as
// code.hybscloud.com/sess's use of atomix.Uint32 for serials and closed
// flags.
package refcount

import "code.hybscloud.com/atomix"

// Handle is an opaque, pre-incremented reference to a host- or
// runtime-owned object. update == nil denotes a non-managed object: the
// runtime never counts it and the host is solely responsible for its
// lifetime.
//
// Every Handle crossing the API boundary is pre-incremented; the
// recipient owes exactly one Decref when it drops the handle. Incref is
// safe to call from any goroutine.
type Handle struct {
	update func(obj any, incref bool)
	obj    any
}

// Managed wraps obj in a Handle backed by an atomic count starting at 1
// (the caller's own reference). release is invoked exactly once, when the
// count drops from 1 to 0.
func Managed(obj any, release func(obj any)) Handle {
	count := new(atomix.Int32)
	count.Store(1)
	return Handle{
		obj: obj,
		update: func(obj any, incref bool) {
			if incref {
				count.Add(1)
				return
			}
			if count.Add(-1) == 0 {
				release(obj)
			}
		},
	}
}

// Foreign wraps obj without any counting; the host owns its lifetime.
func Foreign(obj any) Handle {
	return Handle{obj: obj, update: nil}
}

// Obj returns the wrapped object.
func (h Handle) Obj() any { return h.obj }

// Managed reports whether h is under runtime reference counting.
func (h Handle) Managed() bool { return h.update != nil }

// Incref adds one reference. Safe from any goroutine. A no-op on a
// non-managed (Foreign) handle.
func (h Handle) Incref() {
	if h.update != nil {
		h.update(h.obj, true)
	}
}

// Decref releases one reference, invoking the release callback when the
// last reference is dropped. A no-op on a non-managed (Foreign) handle.
func (h Handle) Decref() {
	if h.update != nil {
		h.update(h.obj, false)
	}
}
