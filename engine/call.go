package engine

import (
	"code.hybscloud.com/glasrt/namespace"
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

// Call resolves name in the thread's current namespace and dispatches
// on the resulting definition's kind, per spec.md §4.D/§4.E's call().
// Data pushes a copy; Callback attaches the thread's namespace at
// callerPrefix and invokes the host function; Prog defers to its own
// AST, evaluated in its closing namespace, and recurses on whatever
// definition that produces (this indirection is what lets a prog
// re-resolve against a namespace assembled after the prog itself was
// bound — see DESIGN.md). Env cannot be called directly.
func (th *Thread) Call(name string, callerPrefix string) rterr.Mask {
	def, mask := th.NS.Resolve(name)
	if mask.Any() {
		th.Raise(mask)
		return mask
	}
	return th.callDef(def, callerPrefix)
}

// CallTL is Call under a translation table applied ahead of resolution,
// generalizing call's optional TL argument (spec.md §4.D).
func (th *Thread) CallTL(name string, tl namespace.TranslationTable, callerPrefix string) rterr.Mask {
	ns := th.NS
	if tl != nil {
		ns = ns.WithTL(tl)
	}
	def, mask := ns.Resolve(name)
	if mask.Any() {
		th.Raise(mask)
		return mask
	}
	return th.callDef(def, callerPrefix)
}

func (th *Thread) callDef(def *namespace.Definition, callerPrefix string) rterr.Mask {
	switch def.Kind {
	case namespace.DefData:
		if value.IsLinear(def.Data) {
			m := rterr.Mask(0).Set(rterr.LINEARITY)
			th.Raise(m)
			return m
		}
		th.Stack.Push(def.Data)
		return 0
	case namespace.DefProg:
		inner, mask := namespace.Eval(def.Prog, def.ProgNS)
		if mask.Any() {
			th.Raise(mask)
			return mask
		}
		return th.callDef(inner, callerPrefix)
	case namespace.DefCallback:
		return th.callCallback(def, callerPrefix)
	default:
		m := rterr.Mask(0).Set(rterr.DATA_TYPE)
		th.Raise(m)
		return m
	}
}

// callCallback dispatches to a host callback, first refusing the call
// with ATOMICITY if the callback declared no_atomic and the thread is
// already inside call_atomic (spec.md §4.E/§5).
func (th *Thread) callCallback(def *namespace.Definition, callerPrefix string) rterr.Mask {
	if def.NoAtomic && th.atomicDepth > 0 {
		m := rterr.Mask(0).Set(rterr.ATOMICITY)
		th.Raise(m)
		return m
	}
	ctx := &namespace.CallContext{
		HostNS:       def.HostNS,
		CallerNS:     th.NS,
		CallerPrefix: callerPrefix,
		Stack:        th.Stack,
		Atomic:       th.atomicDepth > 0,
	}
	if err := def.Callback(ctx); err != nil {
		m := rterr.Mask(0).Set(rterr.ERROR_OP)
		th.Raise(m)
		return m
	}
	return 0
}

// CallAtomic runs fn with the thread's atomic-call depth incremented,
// meaning any commit attempted inside fn (directly or via a nested
// callback that yields) fails with ATOMICITY instead of committing
// (spec.md §4.E "atomic call section").
func (th *Thread) CallAtomic(fn func() rterr.Mask) rterr.Mask {
	th.atomicDepth++
	defer func() { th.atomicDepth-- }()
	return fn()
}

// Prep opportunistically warms name's definition on a worker thread
// without blocking the caller (spec.md §4.D "prep... background
// loading"). It reports whether a worker was actually dispatched;
// callers should treat a false return as advisory only.
func (th *Thread) Prep(name string) bool {
	if th.pool == nil {
		return false
	}
	return th.pool.TryGo(func() {
		_, _ = th.NS.Resolve(name)
	})
}
