// Package value implements the immutable tree-structured value model of
// spec.md §3/§4.A: a value is a Leaf, a Stem of 1..63 bits over a tail, or
// a Branch of two children, with Array/Binary/Concat/Take as
// observationally-equivalent rope optimizations of the list encoding.
//
// Every *Value is immutable once constructed; "copy" is a pointer copy and
// sharing is structural, matching spec.md §9's "structural sharing under
// ownership discipline." Decomposition of any value — not only lists —
// goes through the single generic step function defined in this file, shaped
// after code.hybscloud.com/kont's Frame.Unwind(current) (next, frame)
// single-step reduction: it is this codebase's own idiom for "peel one
// layer, return what's left."
package value

import "code.hybscloud.com/glasrt/refcount"

// Kind tags the representation of a Value node.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindStem
	KindBranch
	KindArray  // optimized list: []*Value
	KindBinary // optimized list of bytes
	KindConcat // rope spine: left ++ right
	KindTake   // rope spine: first n items of an underlying list
	KindSeal   // sealed envelope, keyed by an opaque comparable key
	KindPtr    // opaque host pointer, wrapped as an abstract value
)

// maxStemBits is the largest bit count a single Stem node stores before a
// chained Stem node is required, per spec.md §3 ("64th bit requires one
// additional stem-word"). This module uses an explicit (bits, len) pair
// rather than the C implementation's marker-bit packing trick, since a Go
// struct field is cheaper than bit-stealing here; the observable
// invariant (a stem holds up to 63 bits before chaining) is preserved.
const maxStemBits = 63

// Ephemerality is the lattice attribute of spec.md §3, aggregated as the
// minimum (most ephemeral) of a compound value's parts, matching the
// original C implementation's "aggregator tracks most-ephemeral for self
// and children" (original_source/c/src/glas_internal.h).
type Ephemerality uint8

const (
	Ephemeral Ephemerality = iota
	Transactional
	RuntimeGlobal
	Persistent
)

// Combine returns the more-ephemeral (lower) of a and b.
func (a Ephemerality) Combine(b Ephemerality) Ephemerality {
	if a < b {
		return a
	}
	return b
}

// Value is one immutable tree node. Fields are populated according to
// Kind; unused fields for a given Kind are zero.
type Value struct {
	kind Kind

	// KindStem
	stemBits uint64
	stemLen  uint8

	// KindBranch: left/right. KindConcat: left/right (rope spine).
	// KindStem/KindTake/KindSeal: tail (Stem's tail value, Take's
	// underlying list, Seal's wrapped value).
	left, right, tail *Value

	// KindArray
	arr []*Value

	// KindBinary: bin/pin/hasPin. KindPtr: pin/hasPin (bin unused), plus
	// stemBits reused as a monotone wrap-identity counter (ptrIDSeq) since
	// an opaque `any` handle isn't safely hashable/comparable in general.
	bin    []byte
	pin    refcount.Handle // set when bin aliases a host buffer, or always for KindPtr
	hasPin bool

	// KindTake
	takeLen int

	// KindSeal
	sealKey any
	linear  bool

	eph Ephemerality
}

// Leaf is the canonical empty value, also known as Unit.
var Leaf = &Value{kind: KindLeaf, eph: Persistent}

// Kind reports the node's representation tag.
func (v *Value) Kind() Kind { return v.kind }

// Ephemerality reports the value's lattice attribute.
func (v *Value) Ephemerality() Ephemerality { return v.eph }

// WithEphemerality returns a shallow copy of v tagged with the given
// ephemerality. Used when a value is produced by a transaction-scoped or
// runtime-global operation (e.g. an undo snapshot, a foreign pointer).
func (v *Value) WithEphemerality(e Ephemerality) *Value {
	cp := *v
	cp.eph = e
	return &cp
}

// mkStem prepends one bit onto v, merging into an existing Stem node when
// there is room (< maxStemBits), else starting a new chained Stem node.
// This is the sole constructor path for Left/Right, so the "no Leaf
// immediately under Stem with empty bits, stems maximally compacted"
// invariant of spec.md §3 holds by construction.
func mkStem(bit bool, v *Value) *Value {
	var b uint64
	if bit {
		b = 1
	}
	if v.kind == KindStem && v.stemLen < maxStemBits {
		return &Value{
			kind:     KindStem,
			stemBits: v.stemBits | (b << v.stemLen),
			stemLen:  v.stemLen + 1,
			tail:     v.tail,
			eph:      v.eph,
		}
	}
	return &Value{kind: KindStem, stemBits: b, stemLen: 1, tail: v, eph: v.eph}
}

// Left prepends a 0 bit onto v.
func Left(v *Value) *Value { return mkStem(false, v) }

// Right prepends a 1 bit onto v.
func Right(v *Value) *Value { return mkStem(true, v) }

// Pair constructs Branch(a, b).
func Pair(a, b *Value) *Value {
	return &Value{kind: KindBranch, left: a, right: b, eph: a.eph.Combine(b.eph)}
}

// Unit is Leaf under another name, matching spec.md §3's derived-encoding
// vocabulary.
func Unit() *Value { return Leaf }

// stemBitAt returns the logical bit at position p (0 = closest to root)
// of a Stem node with the given packed bits/len.
func stemBitAt(bits uint64, length uint8, p uint8) bool {
	shift := length - 1 - p
	return (bits>>shift)&1 != 0
}

// step decomposes v by one logical position, unifying Branch/Stem/Array/
// Binary/Concat/Take into a single (head, tail, ok) shape. ok is false
// for a terminal value: Leaf, an empty Array/Binary, an exhausted Take,
// and the opaque Seal/Ptr kinds. This is the load-bearing function of
// the whole package: Equal, Hash, list length/index/take/drop/append are
// all expressed on top of it, which is what makes every rope
// representation of the same list observationally identical (spec.md §8
// property 1).
func step(v *Value) (head, tail *Value, ok bool) {
	switch v.kind {
	case KindLeaf:
		return nil, nil, false
	case KindStem:
		bit := stemBitAt(v.stemBits, v.stemLen, 0)
		var h *Value
		if bit {
			h = Right(Leaf)
		} else {
			h = Left(Leaf)
		}
		if v.stemLen == 1 {
			return h, v.tail, true
		}
		rest := &Value{kind: KindStem, stemBits: v.stemBits, stemLen: v.stemLen - 1, tail: v.tail, eph: v.eph}
		// rest currently holds all stemLen bits; strip the consumed
		// leading bit by masking to the low (stemLen-1) bits.
		mask := uint64(1)<<(v.stemLen-1) - 1
		rest.stemBits = v.stemBits & mask
		return h, rest, true
	case KindBranch:
		return v.left, v.right, true
	case KindArray:
		if len(v.arr) == 0 {
			return nil, nil, false
		}
		if len(v.arr) == 1 {
			return v.arr[0], Leaf, true
		}
		return v.arr[0], &Value{kind: KindArray, arr: v.arr[1:], eph: v.eph}, true
	case KindBinary:
		if len(v.bin) == 0 {
			return nil, nil, false
		}
		h := byteValue(v.bin[0])
		if len(v.bin) == 1 {
			return h, Leaf, true
		}
		return h, &Value{kind: KindBinary, bin: v.bin[1:], eph: v.eph}, true
	case KindConcat:
		h, t, ok := step(v.left)
		if !ok {
			return step(v.right)
		}
		return h, &Value{kind: KindConcat, left: t, right: v.right, eph: v.eph}, true
	case KindTake:
		if v.takeLen <= 0 {
			return nil, nil, false
		}
		h, t, ok := step(v.tail)
		if !ok {
			return nil, nil, false
		}
		return h, &Value{kind: KindTake, tail: t, takeLen: v.takeLen - 1, eph: v.eph}, true
	case KindSeal:
		// Sealed values are opaque: they never decompose.
		return nil, nil, false
	case KindPtr:
		// Ptr values are opaque: they never decompose.
		return nil, nil, false
	default:
		return nil, nil, false
	}
}

// Step exposes the generic single-step decomposition to other packages
// (namespace's AST parsing needs raw Pair/Stem access that the
// higher-level list/dict helpers don't provide directly).
func Step(v *Value) (head, tail *Value, ok bool) { return step(v) }

// byteValue constructs the 8-bit stem representing b, MSB first, per
// spec.md §4.A "byte -> 8 bits MSB-first".
func byteValue(b byte) *Value {
	v := Leaf
	// mkStem prepends, so the last bit handed to it ends up at the
	// front; feed LSB first so the MSB ends up front-most (spec.md
	// §4.A "byte -> 8 bits MSB-first").
	for i := 0; i < 8; i++ {
		bit := (b>>uint(i))&1 != 0
		v = mkStem(bit, v)
	}
	return v
}

// Equal reports whether a and b are the same value under structural
// observation, regardless of representation (Array/Binary/Concat/Take/
// Branch-spine of the same list all compare equal). Physical identity is
// a fast-path, not a requirement.
func Equal(a, b *Value) bool {
	if a == b {
		return true
	}
	// Fast path for two plain stems of matching length: compare bits directly.
	if a.kind == KindStem && b.kind == KindStem && a.stemLen == b.stemLen && a.stemBits == b.stemBits {
		return Equal(a.tail, b.tail)
	}
	ah, at, aok := step(a)
	bh, bt, bok := step(b)
	if a.kind == KindSeal || b.kind == KindSeal {
		if a.kind != KindSeal || b.kind != KindSeal {
			return false
		}
		return a.sealKey == b.sealKey && a.linear == b.linear && Equal(a.tail, b.tail)
	}
	if a.kind == KindPtr || b.kind == KindPtr {
		// Compared by wrap identity (ptrIDSeq), not step()'s leaf-like
		// (nil,nil,false) decomposition, else every Ptr value would
		// wrongly compare equal to Leaf and to each other.
		return a.kind == KindPtr && b.kind == KindPtr && a.stemBits == b.stemBits
	}
	if aok != bok {
		return false
	}
	if !aok {
		return true // both Leaf
	}
	return Equal(ah, bh) && Equal(at, bt)
}

// Hash computes a hash consistent with Equal across all representational
// variants, per spec.md §4.A's recommended scheme: iteratively
// pair-decompose with an accumulator, mixing stem-bits and pair-split
// markers.
func Hash(v *Value) uint64 {
	var acc uint64 = 1469598103934665603 // FNV offset basis
	mix := func(x uint64) {
		acc ^= x
		acc *= 1099511628211 // FNV prime
	}
	if v.kind == KindSeal {
		mix(0xA5) // sealed values hash opaquely
		if sk, ok := v.sealKey.(interface{ Hash() uint64 }); ok {
			mix(sk.Hash())
		}
		mix(Hash(v.tail))
		return acc
	}
	if v.kind == KindPtr {
		mix(0x5A) // ptr values hash by wrap identity
		mix(v.stemBits)
		return acc
	}
	h, t, ok := step(v)
	if !ok {
		mix(0) // leaf marker
		return acc
	}
	mix(1) // pair-split marker
	mix(Hash(h))
	mix(Hash(t))
	return acc
}
