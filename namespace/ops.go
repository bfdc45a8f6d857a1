package namespace

import (
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

// The Ns* functions implement the thread-facing "ns_*" definition
// operations of spec.md §4.D. Each takes the thread's current namespace
// and data stack and returns the thread's new namespace (Namespace
// values are immutable, so "current namespace" is just whichever
// pointer the caller — engine.Thread — holds afterward).

// NsDataDef pops a non-linear value and binds name to it (ns_data_def).
func NsDataDef(ns *Namespace, stack *value.Stack, name string) (*Namespace, rterr.Mask) {
	v, err := stack.Pop()
	if err.Any() {
		return ns, err
	}
	if value.IsLinear(v) {
		stack.Push(v)
		return ns, rterr.Mask(0).Set(rterr.LINEARITY)
	}
	return ns.WithData(name, v), 0
}

// NsHideDef shadows name with undefined (ns_hide_def).
func NsHideDef(ns *Namespace, name string) *Namespace { return ns.WithHiddenName(name) }

// NsHidePrefix shadows every name under prefix with undefined
// (ns_hide_prefix).
func NsHidePrefix(ns *Namespace, prefix string) *Namespace { return ns.WithHiddenPrefix(prefix) }

// NsTlApply composes tl atop ns (ns_tl_apply).
func NsTlApply(ns *Namespace, tl TranslationTable) *Namespace { return ns.WithTL(tl) }

// NsEvalDef pops an AST value and binds name as its lazy evaluation
// under the optional translation tl (ns_eval_def).
func NsEvalDef(ns *Namespace, stack *value.Stack, name string, tl TranslationTable) (*Namespace, rterr.Mask) {
	astV, err := stack.Pop()
	if err.Any() {
		return ns, err
	}
	ast, mask := ParseAST(astV)
	if mask.Any() {
		stack.Push(astV)
		return ns, mask
	}
	evalNS := ns
	if tl != nil {
		evalNS = ns.WithTL(tl)
	}
	return ns.WithLazyDef(name, func() (*Definition, rterr.Mask) { return Eval(ast, evalNS) }), 0
}

// NsEvalPrefix pops an AST value that must reduce to a reified
// environment, and binds its members under prefix, shadowing whatever
// prefix previously reached (ns_eval_prefix).
func NsEvalPrefix(ns *Namespace, stack *value.Stack, prefix string, tl TranslationTable) (*Namespace, rterr.Mask) {
	astV, err := stack.Pop()
	if err.Any() {
		return ns, err
	}
	ast, mask := ParseAST(astV)
	if mask.Any() {
		stack.Push(astV)
		return ns, mask
	}
	evalNS := ns
	if tl != nil {
		evalNS = ns.WithTL(tl)
	}
	d, mask := Eval(ast, evalNS)
	if mask.Any() {
		stack.Push(astV)
		return ns, mask
	}
	if d.Kind != DefEnv {
		stack.Push(astV)
		return ns, rterr.Mask(0).Set(rterr.DATA_TYPE)
	}
	return ns.WithEnvAtPrefix(prefix, d.Env), 0
}

// NsEvalApplyPrepare pops an AST value (ns_eval_apply) and parses it,
// returning the AST and the namespace it evaluates in. The caller
// (engine.Thread.NsEvalApply) evaluates the AST and, if it reduces to a
// reified environment, passes that environment to NsEvalApplyFinish;
// any other result is rejected with DATA_TYPE.
func NsEvalApplyPrepare(ns *Namespace, stack *value.Stack, tl TranslationTable) (*AST, *Namespace, rterr.Mask) {
	astV, err := stack.Pop()
	if err.Any() {
		return nil, ns, err
	}
	ast, mask := ParseAST(astV)
	if mask.Any() {
		stack.Push(astV)
		return nil, ns, mask
	}
	evalNS := ns
	if tl != nil {
		evalNS = ns.WithTL(tl)
	}
	return ast, evalNS, 0
}

// NsEvalApplyFinish binds resultEnv under prefix, completing
// ns_eval_apply once the engine has evaluated the AST to an environment.
func NsEvalApplyFinish(ns *Namespace, prefix string, resultEnv map[string]*Definition) *Namespace {
	return ns.WithEnvAtPrefix(prefix, resultEnv)
}

// NsCbDef binds name to a host callback, which at each call sees both
// the host namespace (closed over now, subject to hostTL) and the
// caller's namespace attached at a call-site-specified prefix
// (ns_cb_def). The name parameter generalizes the shorthand op
// signature in spec.md §4.D, which elides it alongside the other ns_*
// operations that all bind under a name.
func NsCbDef(ns *Namespace, name string, cb Callback, hostTL TranslationTable) *Namespace {
	hostNS := ns
	if hostTL != nil {
		hostNS = ns.WithTL(hostTL)
	}
	def := &Definition{Kind: DefCallback, Callback: cb, HostNS: hostNS}
	return ns.WithLazyDef(name, func() (*Definition, rterr.Mask) { return def, 0 })
}
