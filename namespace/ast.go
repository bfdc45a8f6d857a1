package namespace

import (
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

// ASTKind tags a parsed namespace-program node, per spec.md §4.D's
// tagged variants: t/f/e/b/a/c/y/d, plus application.
type ASTKind uint8

const (
	ASTTranslate ASTKind = iota // t:(TL, body)
	ASTDefine                   // f:(Name, body)
	ASTReifyEnv                 // e:()
	ASTBindPrefix                // b:(Prefix, body)
	ASTAnnotate                  // a:(AnnoAST, body)
	ASTIfDef                     // c:(Name, (then, else))
	ASTFix                       // y:body
	ASTData                      // d:val
	ASTApp                       // (OpAST, ArgAST)
)

// AST is a parsed namespace program node.
type AST struct {
	Kind ASTKind

	TL   TranslationTable // ASTTranslate
	Name string           // ASTDefine, ASTIfDef
	Body *AST             // ASTTranslate, ASTDefine, ASTBindPrefix, ASTAnnotate, ASTFix

	Prefix string // ASTBindPrefix

	Anno *AST // ASTAnnotate

	Then, Else *AST // ASTIfDef

	Data *value.Value // ASTData

	Op, Arg *AST // ASTApp
}

// Reserved single-byte tags for the value encoding chosen for this
// runtime: a tagged node is Pair(tagByte, payload); anything else that
// decomposes as a plain Pair is an application. spec.md §4.D names the
// tags but leaves their value-level encoding unspecified; this
// byte-tag-then-payload scheme is this codebase's own choice (see
// DESIGN.md), kept deliberately distinct from the bit-trie Dict
// encoding of value/dict.go so the two never collide.
const (
	tagTranslate = 't'
	tagDefine    = 'f'
	tagReifyEnv  = 'e'
	tagBindPfx   = 'b'
	tagAnnotate  = 'a'
	tagIfDef     = 'c'
	tagFix       = 'y'
	tagData      = 'd'
)

func nameBytes(v *value.Value) (string, bool) {
	if v.Kind() == value.KindBinary {
		bs, _ := value.PeekBinary(v)
		return string(bs), true
	}
	if value.IsBinary(v) {
		var bs []byte
		for _, e := range value.ToSlice(v) {
			b, ok := value.ByteOf(e)
			if !ok {
				return "", false
			}
			bs = append(bs, b)
		}
		return string(bs), true
	}
	if value.IsBitstring(v) {
		bv, err := value.BitsToBytes(v)
		if err != nil {
			return "", false
		}
		bs, _ := value.PeekBinary(bv)
		return string(bs), true
	}
	return "", false
}

func decodeTL(v *value.Value) (TranslationTable, bool) {
	var tl TranslationTable
	for _, e := range value.ToSlice(v) {
		if !value.IsPair(e) {
			return nil, false
		}
		lhsV, rhsV, _ := value.Step(e)
		lhs, ok := nameBytes(lhsV)
		if !ok {
			return nil, false
		}
		if value.IsInl(rhsV) {
			tl = append(tl, TLEntry{LHS: lhs, RHS: nil})
			continue
		}
		if !value.IsInr(rhsV) {
			return nil, false
		}
		_, rhsInner, _ := value.Step(rhsV)
		rhsName, ok := nameBytes(rhsInner)
		if !ok {
			return nil, false
		}
		tl = append(tl, TLEntry{LHS: lhs, RHS: RHSString(rhsName)})
	}
	return tl, true
}

// ParseAST decodes a value into an AST per the tag-byte-then-payload
// convention above.
func ParseAST(v *value.Value) (*AST, rterr.Mask) {
	if !value.IsPair(v) {
		return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
	}
	tagV, payload, _ := value.Step(v)
	if tagByte, ok := value.ByteOf(tagV); ok {
		switch tagByte {
		case tagTranslate:
			tlV, bodyV, ok := value.Step(payload)
			if !ok {
				return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
			}
			tl, ok := decodeTL(tlV)
			if !ok {
				return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
			}
			body, mask := ParseAST(bodyV)
			if mask.Any() {
				return nil, mask
			}
			return &AST{Kind: ASTTranslate, TL: tl, Body: body}, 0
		case tagDefine:
			nameV, bodyV, ok := value.Step(payload)
			if !ok {
				return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
			}
			name, ok := nameBytes(nameV)
			if !ok {
				return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
			}
			body, mask := ParseAST(bodyV)
			if mask.Any() {
				return nil, mask
			}
			return &AST{Kind: ASTDefine, Name: name, Body: body}, 0
		case tagReifyEnv:
			return &AST{Kind: ASTReifyEnv}, 0
		case tagBindPfx:
			pfxV, bodyV, ok := value.Step(payload)
			if !ok {
				return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
			}
			pfx, ok := nameBytes(pfxV)
			if !ok {
				return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
			}
			body, mask := ParseAST(bodyV)
			if mask.Any() {
				return nil, mask
			}
			return &AST{Kind: ASTBindPrefix, Prefix: pfx, Body: body}, 0
		case tagAnnotate:
			annoV, bodyV, ok := value.Step(payload)
			if !ok {
				return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
			}
			anno, mask := ParseAST(annoV)
			if mask.Any() {
				return nil, mask
			}
			body, mask := ParseAST(bodyV)
			if mask.Any() {
				return nil, mask
			}
			return &AST{Kind: ASTAnnotate, Anno: anno, Body: body}, 0
		case tagIfDef:
			nameV, rest, ok := value.Step(payload)
			if !ok {
				return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
			}
			name, ok := nameBytes(nameV)
			if !ok {
				return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
			}
			thenV, elseV, ok := value.Step(rest)
			if !ok {
				return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
			}
			thenA, mask := ParseAST(thenV)
			if mask.Any() {
				return nil, mask
			}
			elseA, mask := ParseAST(elseV)
			if mask.Any() {
				return nil, mask
			}
			return &AST{Kind: ASTIfDef, Name: name, Then: thenA, Else: elseA}, 0
		case tagFix:
			body, mask := ParseAST(payload)
			if mask.Any() {
				return nil, mask
			}
			return &AST{Kind: ASTFix, Body: body}, 0
		case tagData:
			return &AST{Kind: ASTData, Data: payload}, 0
		}
	}
	op, mask := ParseAST(tagV)
	if mask.Any() {
		return nil, mask
	}
	arg, mask := ParseAST(payload)
	if mask.Any() {
		return nil, mask
	}
	return &AST{Kind: ASTApp, Op: op, Arg: arg}, 0
}

// Eval evaluates ast lazily in ns, returning the definition it reduces
// to (spec.md §4.D: "an AST evaluated in a namespace returns a new
// definition").
func Eval(ast *AST, ns *Namespace) (*Definition, rterr.Mask) {
	switch ast.Kind {
	case ASTData:
		return &Definition{Kind: DefData, Data: ast.Data}, 0
	case ASTTranslate:
		return Eval(ast.Body, ns.WithTL(ast.TL))
	case ASTBindPrefix:
		return Eval(ast.Body, ns.WithPrefix(ast.Prefix))
	case ASTAnnotate:
		return Eval(ast.Body, ns) // annotations carry no runtime semantics
	case ASTFix:
		// True self-application has no value-level encoding in this
		// grammar; named recursion is carried entirely by ASTDefine's
		// lazily-memoized self-binding below, so y: reduces to
		// evaluating its body once in place. See DESIGN.md.
		return Eval(ast.Body, ns)
	case ASTIfDef:
		if _, mask := ns.Resolve(ast.Name); mask == 0 {
			return Eval(ast.Then, ns)
		}
		return Eval(ast.Else, ns)
	case ASTDefine:
		var nsWith *Namespace
		nsWith = ns.WithLazyDef(ast.Name, func() (*Definition, rterr.Mask) {
			return Eval(ast.Body, nsWith)
		})
		return Eval(ast.Body, nsWith)
	case ASTReifyEnv:
		return &Definition{Kind: DefEnv, Env: reifyDefsInScope(ns)}, 0
	case ASTApp:
		return evalApp(ast, ns)
	default:
		return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
	}
}

// reifyDefsInScope collects every explicitly-bound (non-translation)
// name visible from ns, applying shadowing outward-in. Translation-only
// frames and the implicit primitive base are not enumerable, so e:()
// only reifies names this namespace chain has directly bound — an
// intentional, documented limitation (spec.md §4.D doesn't require
// reifying an unbounded/lazy mapping).
func reifyDefsInScope(ns *Namespace) map[string]*Definition {
	out := make(map[string]*Definition)
	seen := make(map[string]bool)
	for n := ns; n != nil; n = n.parent {
		if n.defs == nil {
			continue
		}
		for k, l := range n.defs {
			full := n.prefix + k
			if seen[full] {
				continue
			}
			seen[full] = true
			if d, mask := l.get(); mask == 0 {
				out[full] = d
			}
		}
	}
	return out
}

// evalApp applies an OpAST/ArgAST pair. The only application this
// namespace layer can resolve on its own is extract-from-env (the
// composite constructor of spec.md §4.D): Op reduces to a DefEnv and Arg
// names a member to extract. Applying a prog/callback definition is the
// step engine's call() operation, not namespace evaluation.
func evalApp(ast *AST, ns *Namespace) (*Definition, rterr.Mask) {
	opDef, mask := Eval(ast.Op, ns)
	if mask.Any() {
		return nil, mask
	}
	if opDef.Kind != DefEnv {
		return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
	}
	argDef, mask := Eval(ast.Arg, ns)
	if mask.Any() {
		return nil, mask
	}
	if argDef.Kind != DefData {
		return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
	}
	name, ok := nameBytes(argDef.Data)
	if !ok {
		return nil, rterr.Mask(0).Set(rterr.DATA_TYPE)
	}
	d, ok := opDef.Env[name]
	if !ok {
		return nil, rterr.Mask(0).Set(rterr.NAME_UNDEF)
	}
	return d, 0
}
