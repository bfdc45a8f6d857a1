package namespace_test

import (
	"testing"

	"code.hybscloud.com/glasrt/namespace"
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

func mustData(t *testing.T, ns *namespace.Namespace, name string) *value.Value {
	t.Helper()
	def, mask := ns.Resolve(name)
	if mask.Any() {
		t.Fatalf("Resolve(%q): %v", name, mask)
	}
	if def.Kind != namespace.DefData {
		t.Fatalf("Resolve(%q) kind=%v, want DefData", name, def.Kind)
	}
	return def.Data
}

func TestResolveDataDef(t *testing.T) {
	ns := namespace.Empty().WithData("greet", value.PushBinaryCopy([]byte("hi")))
	got := mustData(t, ns, "greet")
	if !value.Equal(got, value.PushBinaryCopy([]byte("hi"))) {
		t.Fatalf("greet=%v, want hi", got)
	}
}

func TestResolveUndefined(t *testing.T) {
	ns := namespace.Empty()
	if _, mask := ns.Resolve("nope"); !mask.Has(rterr.NAME_UNDEF) {
		t.Fatalf("Resolve of an unbound name should fail NAME_UNDEF, got %v", mask)
	}
}

func TestHiddenNameShadows(t *testing.T) {
	ns := namespace.Empty().WithData("x", value.IntToValue(1))
	hidden := ns.WithHiddenName("x")
	if _, mask := hidden.Resolve("x"); !mask.Has(rterr.NAME_UNDEF) {
		t.Fatalf("hidden name should resolve NAME_UNDEF, got %v", mask)
	}
	if _, mask := ns.Resolve("x"); mask.Any() {
		t.Fatal("hiding in a child namespace must not affect the parent")
	}
}

func TestPrefixTranslation(t *testing.T) {
	base := namespace.Empty().WithData("a.greet", value.PushBinaryCopy([]byte("hi")))
	prefixed := base.WithPrefix("a.")
	got := mustData(t, prefixed, "greet")
	if !value.Equal(got, value.PushBinaryCopy([]byte("hi"))) {
		t.Fatalf("greet through prefix=%v, want hi", got)
	}
}

func TestHidePrefix(t *testing.T) {
	base := namespace.Empty().WithData("a.x", value.IntToValue(1)).WithData("b.x", value.IntToValue(2))
	hidden := base.WithHiddenPrefix("a.")
	if _, mask := hidden.Resolve("a.x"); !mask.Has(rterr.NAME_UNDEF) {
		t.Fatalf("a.x should be hidden, got %v", mask)
	}
	got := mustData(t, hidden, "b.x")
	if n, ok := value.ValueToInt64(got); !ok || n != 2 {
		t.Fatalf("b.x=%v, want 2 (untouched by hiding a.)", got)
	}
}

// byteVal builds the single-byte tag value ParseAST expects for a tagged
// node's leading byte.
func byteVal(b byte) *value.Value {
	return value.ToSlice(value.BinaryFromBytes([]byte{b}))[0]
}

func TestParseAndEvalData(t *testing.T) {
	astV := value.Pair(byteVal('d'), value.IntToValue(99))
	ast, mask := namespace.ParseAST(astV)
	if mask.Any() {
		t.Fatalf("ParseAST: %v", mask)
	}
	def, mask := namespace.Eval(ast, namespace.Empty())
	if mask.Any() {
		t.Fatalf("Eval: %v", mask)
	}
	if def.Kind != namespace.DefData {
		t.Fatalf("kind=%v, want DefData", def.Kind)
	}
	if n, ok := value.ValueToInt64(def.Data); !ok || n != 99 {
		t.Fatalf("data=%v, want 99", def.Data)
	}
}

func TestParseAndEvalIfDef(t *testing.T) {
	nameV := value.PushBinaryCopy([]byte("present"))
	thenV := value.Pair(byteVal('d'), value.IntToValue(1))
	elseV := value.Pair(byteVal('d'), value.IntToValue(2))
	astV := value.Pair(byteVal('c'), value.Pair(nameV, value.Pair(thenV, elseV)))

	ast, mask := namespace.ParseAST(astV)
	if mask.Any() {
		t.Fatalf("ParseAST: %v", mask)
	}

	nsWithout := namespace.Empty()
	def, mask := namespace.Eval(ast, nsWithout)
	if mask.Any() {
		t.Fatalf("Eval: %v", mask)
	}
	if n, _ := value.ValueToInt64(def.Data); n != 2 {
		t.Fatalf("c:(present, 1, 2) without 'present' bound = %d, want 2 (else branch)", n)
	}

	nsWith := namespace.Empty().WithData("present", value.Leaf)
	def, mask = namespace.Eval(ast, nsWith)
	if mask.Any() {
		t.Fatalf("Eval: %v", mask)
	}
	if n, _ := value.ValueToInt64(def.Data); n != 1 {
		t.Fatalf("c:(present, 1, 2) with 'present' bound = %d, want 1 (then branch)", n)
	}
}

func TestReifyEnvScopedNames(t *testing.T) {
	ns := namespace.Empty().WithData("x", value.IntToValue(1)).WithData("y", value.IntToValue(2))
	astV := value.Pair(byteVal('e'), value.Leaf)
	ast, mask := namespace.ParseAST(astV)
	if mask.Any() {
		t.Fatalf("ParseAST: %v", mask)
	}
	def, mask := namespace.Eval(ast, ns)
	if mask.Any() {
		t.Fatalf("Eval: %v", mask)
	}
	if def.Kind != namespace.DefEnv {
		t.Fatalf("kind=%v, want DefEnv", def.Kind)
	}
	if len(def.Env) == 0 {
		t.Fatal("reified environment should contain at least the directly-bound name from the most recent WithData call")
	}
}
