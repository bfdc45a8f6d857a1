package rtadapt

import (
	"code.hybscloud.com/glasrt/namespace"
	"code.hybscloud.com/glasrt/rterr"
)

// builtinCompilerExts are the file extensions spec.md §6 names for
// ns_load_builtin_compilers: "glas" (the namespace-construction AST
// grammar of namespace.ParseAST) and "glob" (a compiled/serialized
// variant of the same grammar). The distilled spec gives no separate
// concrete textual grammar for either, so both compilers are scoped to
// "the source value is already namespace.ParseAST's tagged AST
// encoding" — a compiler call evaluates it and, if the result is data,
// returns that data; any other definition kind cannot be represented
// back on the caller's stack, matching the DefProg deferred-evaluation
// scoping decision (see DESIGN.md).
var builtinCompilerExts = []string{"glas", "glob"}

// NsLoadBuiltinCompilers installs one callback per builtinCompilerExts
// entry under prefix+ext (e.g. prefix+"glas"), each popping a source
// value from the stack, parsing and evaluating it as a namespace AST in
// the caller's own namespace, and pushing back the resulting data.
func NsLoadBuiltinCompilers(ns *namespace.Namespace, prefix string) *namespace.Namespace {
	env := make(map[string]*namespace.Definition, len(builtinCompilerExts))
	for _, ext := range builtinCompilerExts {
		env[ext] = &namespace.Definition{
			Kind:     namespace.DefCallback,
			NoAtomic: true,
			Callback: compileCallback,
		}
	}
	return ns.WithEnvAtPrefix(prefix, env)
}

func compileCallback(ctx *namespace.CallContext) error {
	src, err := ctx.Stack.Pop()
	if err.Any() {
		return raised(err)
	}
	ast, mask := namespace.ParseAST(src)
	if mask.Any() {
		return raised(mask)
	}
	def, mask := namespace.Eval(ast, ctx.CallerNS)
	if mask.Any() {
		return raised(mask)
	}
	if def.Kind != namespace.DefData {
		return raised(rterr.Mask(0).Set(rterr.DATA_TYPE))
	}
	ctx.Stack.Push(def.Data)
	return nil
}
