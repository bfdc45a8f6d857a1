package rtadapt

import (
	"code.hybscloud.com/glasrt/namespace"
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

// NsLoadPrims installs the built-in primitive operations of
// original_source/c/api/glas.h's glas_data_* family under prefix, as
// callback definitions operating purely on the caller's data stack
// (spec.md §4.B "Push/pop/swap/copy/drop", "Pattern move string",
// "Primitive constructors", "Dict ops", "Binary push/peek",
// "Integer read/write"). Transactional operations (register access,
// checkpoints, commit/abort, seal/unseal against a register-bound key)
// are Thread methods rather than callable names, since they need state
// a Callback's CallContext does not expose (spec.md §5's C-style command
// interface models those as direct API calls, not named calls either).
func NsLoadPrims(ns *namespace.Namespace, prefix string) *namespace.Namespace {
	env := map[string]*namespace.Definition{
		"swap": prim(func(s *value.Stack) error { return raised(s.Swap()) }),
		"copy": prim(func(s *value.Stack) error { return raised(s.Copy(false)) }),
		"drop": prim(func(s *value.Stack) error { return raised(s.Drop(1, false)) }),
		"mkp":  prim(func(s *value.Stack) error { return raised(s.Mkp()) }),
		"mkl":  prim(func(s *value.Stack) error { return raised(s.Mkl()) }),
		"mkr":  prim(func(s *value.Stack) error { return raised(s.Mkr()) }),
		"unp":  prim(func(s *value.Stack) error { return raised(s.Unp()) }),
		"unl":  prim(func(s *value.Stack) error { return raised(s.Unl()) }),
		"unr":  prim(func(s *value.Stack) error { return raised(s.Unr()) }),

		"dict-insert": prim(dictInsert),
		"dict-remove": prim(dictRemove),
		"dict-lookup": prim(dictLookup),

		"binary-push": prim(binaryPush),
		"binary-peek": prim(binaryPeek),

		// Unbounded (int64) push/peek, matching original_source's
		// glas_integer_push/glas_integer_peek default width.
		"integer-push": prim(integerPush(64, true)),
		"integer-peek": prim(integerPeek(64, true)),
	}
	for name, w := range intWidths {
		env["integer-push-"+name] = prim(integerPush(w.bits, w.signed))
		env["integer-peek-"+name] = prim(integerPeek(w.bits, w.signed))
	}
	return ns.WithEnvAtPrefix(prefix, env)
}

// intWidths enumerates the fixed-width integer primitives of spec.md
// §4.A ("Integer push/peek: bounded conversion... for the requested
// width"), generalizing original_source/c/api/glas.h's unbounded
// glas_integer_push/glas_integer_peek(int64_t) to every width a program
// might declare a register or wire value at.
var intWidths = map[string]struct {
	bits   int
	signed bool
}{
	"i8": {8, true}, "u8": {8, false},
	"i16": {16, true}, "u16": {16, false},
	"i32": {32, true}, "u32": {32, false},
	"i64": {64, true}, "u64": {64, false},
}

// prim wraps a pure-stack primitive body as a callback definition that
// is not declared no_atomic: none of these operations touches a register
// or the commit protocol, so they are always safe inside an atomic section.
func prim(fn func(*value.Stack) error) *namespace.Definition {
	return &namespace.Definition{
		Kind:     namespace.DefCallback,
		NoAtomic: false,
		Callback: func(ctx *namespace.CallContext) error { return fn(ctx.Stack) },
	}
}

// raised turns an rterr.Mask into an error the engine's callCallback
// wrapper reports as ERROR_OP; the mask's actual bit is lost this way, a
// documented limitation of the glas_def_cb -> bool boundary (see
// original_source/c/api/glas.h: "Returning 'false' will represent error
// or divergence" carries no further detail either).
func raised(m rterr.Mask) error {
	if m.Any() {
		return errMask{m}
	}
	return nil
}

type errMask struct{ m rterr.Mask }

func (e errMask) Error() string { return "rtadapt: primitive failed" }

func dictInsert(s *value.Stack) error {
	item, err := s.Pop()
	if err.Any() {
		return raised(err)
	}
	label, err := s.Pop()
	if err.Any() {
		return raised(err)
	}
	record, err := s.Pop()
	if err.Any() {
		return raised(err)
	}
	s.Push(value.DictInsert(record, label, item))
	return nil
}

func dictRemove(s *value.Stack) error {
	label, err := s.Pop()
	if err.Any() {
		return raised(err)
	}
	record, err := s.Pop()
	if err.Any() {
		return raised(err)
	}
	item, updated, ok := value.DictRemove(record, label)
	if !ok {
		return raised(rterr.Mask(0).Set(rterr.ERROR_OP))
	}
	s.Push(updated)
	s.Push(item)
	return nil
}

func dictLookup(s *value.Stack) error {
	label, err := s.Pop()
	if err.Any() {
		return raised(err)
	}
	record, err := s.Pop()
	if err.Any() {
		return raised(err)
	}
	item, ok := value.DictLookup(record, label)
	if !ok {
		return raised(rterr.Mask(0).Set(rterr.ERROR_OP))
	}
	s.Push(item)
	return nil
}

func binaryPush(s *value.Stack) error {
	top, err := s.Pop()
	if err.Any() {
		return raised(err)
	}
	bs, ok := value.PeekBinary(top)
	if !ok {
		return raised(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	s.Push(value.PushBinaryCopy(bs))
	return nil
}

func binaryPeek(s *value.Stack) error {
	top, err := s.Peek()
	if err.Any() {
		return raised(err)
	}
	_, ok := value.PeekBinary(top)
	if !ok {
		return raised(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	return nil
}

// integerPush returns a primitive that pops the top value, checks it
// decodes as an integer within [bitWidth, signed]'s range via
// value.PeekInt, and re-pushes its canonical encoding — failing DATA_TYPE
// and leaving the stack untouched if the shape is invalid or the
// magnitude does not fit (spec.md §4.A).
func integerPush(bitWidth int, signed bool) func(*value.Stack) error {
	return func(s *value.Stack) error {
		top, err := s.Pop()
		if err.Any() {
			return raised(err)
		}
		n, ok := value.PeekInt(top, bitWidth, signed)
		if !ok {
			s.Push(top)
			return raised(rterr.Mask(0).Set(rterr.DATA_TYPE))
		}
		s.Push(value.IntToValue(n))
		return nil
	}
}

// integerPeek returns a primitive that checks, without popping, that the
// top value decodes as an integer fitting [bitWidth, signed], failing
// DATA_TYPE otherwise (spec.md §4.A "peek FAILs if shape invalid or
// magnitude out of range for the requested width").
func integerPeek(bitWidth int, signed bool) func(*value.Stack) error {
	return func(s *value.Stack) error {
		top, err := s.Peek()
		if err.Any() {
			return raised(err)
		}
		if _, ok := value.PeekInt(top, bitWidth, signed); !ok {
			return raised(rterr.Mask(0).Set(rterr.DATA_TYPE))
		}
		return nil
	}
}
