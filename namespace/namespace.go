// Package namespace implements the lexically-scoped namespace of
// spec.md §4.D: translation tables with longest-prefix-match resolution,
// a lazy AST evaluator over tagged value variants, and the definition
// kinds (data/prog/callback) a thread's ns_* operations manipulate.
package namespace

import (
	"strings"
	"sync"

	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

// TLEntry is one {lhs, rhs} translation rule. RHS == nil marks the name
// undefined (the {null,null} terminator's semantics in spec.md §4.D,
// generalized to any entry: a nil RHS shadows LHS's names as undefined
// rather than only terminating the table).
type TLEntry struct {
	LHS string
	RHS *string
}

// TranslationTable is an ordered list of TLEntry; lookup uses the
// longest LHS that prefixes the (augmented) name being resolved.
type TranslationTable []TLEntry

func (tl TranslationTable) longestMatch(name string) (TLEntry, bool) {
	best := -1
	var bestEntry TLEntry
	for _, e := range tl {
		if len(e.LHS) > best && strings.HasPrefix(name, e.LHS) {
			best = len(e.LHS)
			bestEntry = e
		}
	}
	if best < 0 {
		return TLEntry{}, false
	}
	return bestEntry, true
}

// RHSString is a convenience constructor for a defined TLEntry.
func RHSString(s string) *string { return &s }

// Namespace is one immutable frame in a chain of prefix-translations
// atop primitive bindings plus definitions (spec.md §1). Frames are
// either a translation layer (tl != nil) or a definitions layer
// (defs != nil); a fresh chain link is created by every ns_* operation,
// giving the copy-on-write sharing spec.md §4.E's fork relies on.
type Namespace struct {
	parent *Namespace
	tl     TranslationTable
	defs   map[string]lazyDef
	prefix string // "" unless this defs layer was bound via ns_eval_prefix

	cacheMu sync.RWMutex
	cache   map[string]cacheEntry
}

type cacheEntry struct {
	def *Definition
	ok  bool
}

type lazyDef struct {
	resolve func() (*Definition, rterr.Mask)
	once    sync.Once
	def     *Definition
	mask    rterr.Mask
}

func (l *lazyDef) get() (*Definition, rterr.Mask) {
	l.once.Do(func() { l.def, l.mask = l.resolve() })
	return l.def, l.mask
}

// Empty is the base namespace: no translations, no definitions.
func Empty() *Namespace { return &Namespace{} }

func (ns *Namespace) child() *Namespace {
	return &Namespace{parent: ns}
}

// WithTL composes tl atop ns (t:(TL, body) / ns_tl_apply(TL)).
func (ns *Namespace) WithTL(tl TranslationTable) *Namespace {
	n := ns.child()
	n.tl = tl
	return n
}

// WithPrefix returns a namespace where every name is resolved by first
// prepending prefix, implemented as a single catch-all translation entry
// (LHS "" matches every augmented name). This is how b:(Prefix, body) is
// modeled: see DESIGN.md for why an empty-LHS entry is the natural
// generalization of the translation-table algorithm to "prepend a
// prefix to everything."
func (ns *Namespace) WithPrefix(prefix string) *Namespace {
	return ns.WithTL(TranslationTable{{LHS: "", RHS: RHSString(prefix)}})
}

// WithData binds name to a data definition directly in a new layer
// (ns_data_def).
func (ns *Namespace) WithData(name string, v *value.Value) *Namespace {
	return ns.withLazy(name, func() (*Definition, rterr.Mask) {
		return &Definition{Kind: DefData, Data: v}, 0
	})
}

// WithLazyDef binds name to a definition computed on first use and
// memoized thereafter (used for f:'s self-referential binding and for
// ns_eval_def).
func (ns *Namespace) WithLazyDef(name string, resolve func() (*Definition, rterr.Mask)) *Namespace {
	return ns.withLazy(name, resolve)
}

func (ns *Namespace) withLazy(name string, resolve func() (*Definition, rterr.Mask)) *Namespace {
	n := ns.child()
	n.defs = map[string]lazyDef{name: {resolve: resolve}}
	return n
}

// WithHiddenName shadows name with undefined (ns_hide_def).
func (ns *Namespace) WithHiddenName(name string) *Namespace {
	return ns.withLazy(name, func() (*Definition, rterr.Mask) { return nil, rterr.Mask(0).Set(rterr.NAME_UNDEF) })
}

// WithHiddenPrefix shadows every name under prefix with undefined
// (ns_hide_prefix).
func (ns *Namespace) WithHiddenPrefix(prefix string) *Namespace {
	n := ns.child()
	n.prefix = prefix
	n.defs = map[string]lazyDef{} // empty defs frame under prefix: everything under it is undefined
	return n
}

// WithEnvAtPrefix binds every member of env under prefix, shadowing (not
// merging with) any names previously reachable through prefix
// (ns_eval_prefix).
func (ns *Namespace) WithEnvAtPrefix(prefix string, env map[string]*Definition) *Namespace {
	n := ns.child()
	n.prefix = prefix
	defs := make(map[string]lazyDef, len(env))
	for k, d := range env {
		d := d
		defs[k] = lazyDef{resolve: func() (*Definition, rterr.Mask) { return d, 0 }}
	}
	n.defs = defs
	return n
}

// Resolve looks up name per spec.md §4.D's algorithm: append an implicit
// ".." then walk the frame chain, applying the longest-prefix-matching
// translation or defs-layer shadow at each frame, until a definition, an
// explicit undefined, or the base of the chain is reached.
func (ns *Namespace) Resolve(name string) (*Definition, rterr.Mask) {
	if d, ok, hit := ns.cacheLookup(name); hit {
		if !ok {
			return nil, rterr.Mask(0).Set(rterr.NAME_UNDEF)
		}
		return d, 0
	}
	d, mask := ns.resolveAugmented(name + "..")
	ns.cacheStore(name, d, mask == 0)
	return d, mask
}

func (ns *Namespace) cacheLookup(name string) (*Definition, bool, bool) {
	ns.cacheMu.RLock()
	defer ns.cacheMu.RUnlock()
	e, hit := ns.cache[name]
	return e.def, e.ok, hit
}

func (ns *Namespace) cacheStore(name string, d *Definition, ok bool) {
	ns.cacheMu.Lock()
	defer ns.cacheMu.Unlock()
	if ns.cache == nil {
		ns.cache = make(map[string]cacheEntry)
	}
	ns.cache[name] = cacheEntry{def: d, ok: ok}
}

func (ns *Namespace) resolveAugmented(aug string) (*Definition, rterr.Mask) {
	if ns == nil {
		return nil, rterr.Mask(0).Set(rterr.NAME_UNDEF)
	}
	if ns.defs != nil {
		raw := strings.TrimSuffix(aug, "..")
		if ns.prefix != "" {
			if !strings.HasPrefix(raw, ns.prefix) {
				return ns.parent.resolveAugmented(aug)
			}
			rest := strings.TrimPrefix(raw, ns.prefix)
			if l, ok := ns.defs[rest]; ok {
				return l.get()
			}
			return nil, rterr.Mask(0).Set(rterr.NAME_UNDEF) // shadowed: no fallthrough
		}
		if l, ok := ns.defs[raw]; ok {
			return l.get()
		}
		return ns.parent.resolveAugmented(aug)
	}
	if ns.tl != nil {
		entry, found := ns.tl.longestMatch(aug)
		if !found {
			return ns.parent.resolveAugmented(aug)
		}
		if entry.RHS == nil {
			return nil, rterr.Mask(0).Set(rterr.NAME_UNDEF)
		}
		newAug := *entry.RHS + aug[len(entry.LHS):]
		return ns.parent.resolveAugmented(newAug)
	}
	return ns.parent.resolveAugmented(aug)
}
