package value

// IsUnit reports whether v is the empty Leaf value.
func IsUnit(v *Value) bool { return v.kind == KindLeaf }

// IsPair reports whether v is a Branch (Pair) node, not a list-optimized
// rope node (Concat/Take share the Branch role for lists but are
// distinguished here since a caller asking "is this a raw pair" wants
// mkp/unp semantics, not list algebra).
func IsPair(v *Value) bool { return v.kind == KindBranch }

// IsInl reports whether v is Left(x) for some x: a Stem whose first bit is 0.
func IsInl(v *Value) bool {
	return v.kind == KindStem && !stemBitAt(v.stemBits, v.stemLen, 0)
}

// IsInr reports whether v is Right(x) for some x: a Stem whose first bit is 1.
func IsInr(v *Value) bool {
	return v.kind == KindStem && stemBitAt(v.stemBits, v.stemLen, 0)
}

// IsBitstring reports whether v consists only of stems terminating in Leaf.
func IsBitstring(v *Value) bool {
	switch v.kind {
	case KindLeaf:
		return true
	case KindStem:
		return IsBitstring(v.tail)
	default:
		return false
	}
}

// IsByte reports whether v is exactly 8 stem-bits over Leaf.
func IsByte(v *Value) bool {
	return v.kind == KindStem && v.stemLen == 8 && IsUnit(v.tail)
}

// IsList reports whether v is Leaf or a Branch/Array/Binary/Concat/Take
// whose tail is itself a list, i.e. it decomposes cleanly to a Leaf spine.
func IsList(v *Value) bool {
	switch v.kind {
	case KindLeaf:
		return true
	case KindBranch, KindArray, KindBinary, KindConcat, KindTake:
		_, t, ok := step(v)
		if !ok {
			return true
		}
		return IsList(t)
	default:
		return false
	}
}

// IsBinary reports whether v is a list of bytes (each element 8 stem-bits).
func IsBinary(v *Value) bool {
	if v.kind == KindBinary {
		return true
	}
	if v.kind == KindLeaf {
		return true
	}
	if v.kind == KindSeal || v.kind == KindPtr {
		return false // opaque, never a byte list regardless of step()'s terminal shape
	}
	h, t, ok := step(v)
	if !ok {
		return true
	}
	if !IsByte(h) {
		return false
	}
	return IsBinary(t)
}

// IsDict reports whether v's top node has a kind a dict may have: Leaf
// (empty dict), Branch (a bit-trie node as value/dict.go builds it), or
// Stem. Only the top node's kind is checked.
func IsDict(v *Value) bool {
	return v.kind == KindLeaf || v.kind == KindBranch || v.kind == KindStem
}

// IsRational reports whether v is shaped like a rational number
// encoding (Pair of two integers). This runtime does not accelerate
// rational arithmetic (spec.md §9 Open Questions); the predicate exists
// so client code can detect the convention without the runtime itself
// interpreting it.
func IsRational(v *Value) bool {
	if v.kind != KindBranch {
		return false
	}
	return IsBitstring(v.left) && IsBitstring(v.right)
}
