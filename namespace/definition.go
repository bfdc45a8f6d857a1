package namespace

import "code.hybscloud.com/glasrt/value"

// DefKind tags what a Definition holds, per spec.md §4.D.
type DefKind uint8

const (
	DefData DefKind = iota
	DefProg
	DefCallback
	DefEnv // reified environment produced by e:(), spec.md §4.D
)

// Definition is what a name resolves to.
type Definition struct {
	Kind DefKind

	Data *value.Value // DefData

	Prog   *AST       // DefProg: a closed AST
	ProgNS *Namespace // namespace the prog's free names resolve in

	Callback Callback   // DefCallback
	HostNS   *Namespace // callback's lexically-closed host namespace
	NoAtomic bool       // callback declared no_atomic

	Env map[string]*Definition // DefEnv
}

// CallContext is what a callback definition receives when invoked
// (spec.md §4.D "callback: a host-supplied function closing over a host
// namespace AST"). The engine package constructs these; namespace only
// declares the shape callbacks are bound with.
type CallContext struct {
	HostNS       *Namespace
	CallerNS     *Namespace
	CallerPrefix string
	Stack        *value.Stack
	Atomic       bool
}

// Callback is a host-supplied function bound via ns_cb_def.
type Callback func(ctx *CallContext) error
