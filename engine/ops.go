package engine

import (
	"code.hybscloud.com/glasrt/namespace"
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

// The Thread methods below are thin, error-raising wrappers over
// value.Stack and register.Txn: every stack/register primitive of
// spec.md §4.A-C both returns its rterr.Mask AND folds it into the
// thread's step-wide error register, matching how the teacher's op.go
// records a session fault against sessionContext before returning it.

func (th *Thread) fail(m rterr.Mask) rterr.Mask {
	if m.Any() {
		th.Raise(m)
	}
	return m
}

// Push places v on top of the data stack.
func (th *Thread) Push(v *value.Value) { th.Stack.Push(v) }

// Pop removes and returns the top of the data stack.
func (th *Thread) Pop() (*value.Value, rterr.Mask) {
	v, m := th.Stack.Pop()
	return v, th.fail(m)
}

// Swap exchanges the top two stack items.
func (th *Thread) Swap() rterr.Mask { return th.fail(th.Stack.Swap()) }

// Copy duplicates the top stack item, failing with LINEARITY unless
// force is set and the item permits forced copy per its seal.
func (th *Thread) Copy(force bool) rterr.Mask { return th.fail(th.Stack.Copy(force)) }

// Drop discards the top n stack items.
func (th *Thread) Drop(n int, force bool) rterr.Mask { return th.fail(th.Stack.Drop(n, force)) }

// Move applies the "abc-abcabc" stack-shuffle pattern.
func (th *Thread) Move(pattern string, force bool) rterr.Mask {
	return th.fail(th.Stack.Move(pattern, force))
}

// Mkp, Mkl, Mkr, Unp, Unl, Unr are the pair/sum constructors and
// destructors of spec.md §4.A.
func (th *Thread) Mkp() rterr.Mask { return th.fail(th.Stack.Mkp()) }
func (th *Thread) Mkl() rterr.Mask { return th.fail(th.Stack.Mkl()) }
func (th *Thread) Mkr() rterr.Mask { return th.fail(th.Stack.Mkr()) }
func (th *Thread) Unp() rterr.Mask { return th.fail(th.Stack.Unp()) }
func (th *Thread) Unl() rterr.Mask { return th.fail(th.Stack.Unl()) }
func (th *Thread) Unr() rterr.Mask { return th.fail(th.Stack.Unr()) }

// ToStash transfers the top amt items from the data stack to the stash.
func (th *Thread) ToStash(amt int) rterr.Mask {
	return th.fail(th.Stack.Transfer(th.Stash, amt))
}

// FromStash transfers the top amt items from the stash back to the data
// stack.
func (th *Thread) FromStash(amt int) rterr.Mask {
	return th.fail(th.Stash.Transfer(th.Stack, amt))
}

// RegRead reads register name into the top of the data stack.
func (th *Thread) RegRead(name string) rterr.Mask {
	v, m := th.txn.Read(name)
	if m.Any() {
		return th.fail(m)
	}
	th.Push(v)
	return 0
}

// RegWrite writes the top of the data stack into register name.
func (th *Thread) RegWrite(name string) rterr.Mask {
	v, m := th.Pop()
	if m.Any() {
		return m
	}
	if reason := th.checkEphemerality(name, v); reason.Any() {
		th.Push(v)
		return th.fail(reason)
	}
	return th.fail(th.txn.Write(name, v))
}

// RegSwap exchanges register name with the top of the data stack.
func (th *Thread) RegSwap(name string) rterr.Mask {
	v, m := th.Pop()
	if m.Any() {
		return m
	}
	if reason := th.checkEphemerality(name, v); reason.Any() {
		th.Push(v)
		return th.fail(reason)
	}
	old, m := th.txn.Swap(name, v)
	if m.Any() {
		th.Push(v)
		return th.fail(m)
	}
	th.Push(old)
	return 0
}

// RegQueueRead removes the front n items of queue register name onto
// the data stack as a list.
func (th *Thread) RegQueueRead(name string, n int) rterr.Mask {
	items, m := th.txn.QueueRead(name, n)
	if m.Any() {
		return th.fail(m)
	}
	th.Push(items)
	return 0
}

// RegQueueUnread pushes the top-of-stack list back onto the front of
// queue register name.
func (th *Thread) RegQueueUnread(name string) rterr.Mask {
	items, m := th.Pop()
	if m.Any() {
		return m
	}
	th.txn.QueueUnread(name, items)
	return 0
}

// RegQueueWrite appends the top-of-stack list to queue register name.
func (th *Thread) RegQueueWrite(name string) rterr.Mask {
	items, m := th.Pop()
	if m.Any() {
		return m
	}
	if reason := th.checkEphemerality(name, items); reason.Any() {
		th.Push(items)
		return th.fail(reason)
	}
	th.txn.QueueWrite(name, items)
	return 0
}

// RegBagRead removes a non-deterministically selected item from bag
// register name onto the data stack.
func (th *Thread) RegBagRead(name string) rterr.Mask {
	item, m := th.txn.BagRead(name)
	if m.Any() {
		return th.fail(m)
	}
	th.Push(item)
	return 0
}

// RegBagWrite adds the top of the data stack to bag register name.
func (th *Thread) RegBagWrite(name string) rterr.Mask {
	item, m := th.Pop()
	if m.Any() {
		return m
	}
	if reason := th.checkEphemerality(name, item); reason.Any() {
		th.Push(item)
		return th.fail(reason)
	}
	th.txn.BagWrite(name, item)
	return 0
}

// checkEphemerality enforces spec.md §4.B: a value's ephemerality
// level must not exceed the register it is stored into. Registers in
// this runtime are process-memory only (spec.md §9 Non-goals excludes
// persistence), so the ceiling every register offers is RuntimeGlobal
// — only Ephemeral-tainted values (data holding a value.PtrValue, the
// one constructor that marks a value Ephemeral) are ever rejected.
func (th *Thread) checkEphemerality(name string, v *value.Value) rterr.Mask {
	if v.Ephemerality() == value.Ephemeral {
		return rterr.Mask(0).Set(rterr.EPHEMERALITY)
	}
	return 0
}

// NsDataDef, NsHideDef, NsHidePrefix, NsTlApply, NsEvalDef, NsEvalPrefix
// and NsCbDef mutate the thread's current namespace in place, per
// spec.md §4.D — each is a thin dispatch to the namespace package,
// which is pure/functional and returns a new *Namespace rather than
// mutating.
func (th *Thread) NsDataDef(name string) rterr.Mask {
	ns, m := namespace.NsDataDef(th.NS, th.Stack, name)
	th.NS = ns
	return th.fail(m)
}

func (th *Thread) NsHideDef(name string) { th.NS = namespace.NsHideDef(th.NS, name) }

func (th *Thread) NsHidePrefix(prefix string) { th.NS = namespace.NsHidePrefix(th.NS, prefix) }

func (th *Thread) NsTlApply(tl namespace.TranslationTable) { th.NS = namespace.NsTlApply(th.NS, tl) }

func (th *Thread) NsEvalDef(name string, tl namespace.TranslationTable) rterr.Mask {
	ns, m := namespace.NsEvalDef(th.NS, th.Stack, name, tl)
	th.NS = ns
	return th.fail(m)
}

func (th *Thread) NsEvalPrefix(prefix string, tl namespace.TranslationTable) rterr.Mask {
	ns, m := namespace.NsEvalPrefix(th.NS, th.Stack, prefix, tl)
	th.NS = ns
	return th.fail(m)
}

// NsEvalApply implements ns_eval_apply's Env->Env application: the AST
// must reduce to a reified environment (already handled by
// namespace.Eval/ASTReifyEnv), which is what a "prog" evaluated for
// its side effect on the namespace looks like in this runtime — this
// runtime has no distinct Env->Env callable form beyond that reduction.
func (th *Thread) NsEvalApply(prefix string, tl namespace.TranslationTable) rterr.Mask {
	ast, evalNS, m := namespace.NsEvalApplyPrepare(th.NS, th.Stack, tl)
	if m.Any() {
		return th.fail(m)
	}
	def, m := namespace.Eval(ast, evalNS)
	if m.Any() {
		return th.fail(m)
	}
	if def.Kind != namespace.DefEnv {
		return th.fail(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	th.NS = namespace.NsEvalApplyFinish(th.NS, prefix, def.Env)
	return 0
}

func (th *Thread) NsCbDef(name string, cb namespace.Callback, hostTL namespace.TranslationTable) {
	th.NS = namespace.NsCbDef(th.NS, name, cb, hostTL)
}
