package value

import "code.hybscloud.com/atomix"

// SealKey is an opaque, unforgeable capability minted by NewSealKey.
// Equality is pointer identity, so a sealed value can only be unsealed by
// whoever holds (or was handed) the exact key that sealed it, per
// spec.md §4.A's "keyed opaque envelope."
type SealKey struct {
	id uint64
}

var sealKeySeq atomix.Uint64

// NewSealKey mints a fresh seal key. Grounded on the same
// code.hybscloud.com/atomix counter idiom used for register versions
// (register/register.go): a monotone counter is sufficient to guarantee
// distinctness without any global lock.
func NewSealKey() *SealKey {
	return &SealKey{id: sealKeySeq.Add(1)}
}

// Seal wraps v in an opaque envelope keyed by key. When linear is true the
// resulting value additionally forbids the ordinary copy/drop stack
// operations (spec.md §4.A's linear sealed variant); enforcement of that
// restriction lives in the data stack (value/stack.go), since Seal itself
// only needs to carry the flag.
func Seal(v *Value, key *SealKey, linear bool) *Value {
	return &Value{kind: KindSeal, tail: v, sealKey: key, linear: linear, eph: v.eph}
}

// Unseal returns the wrapped value if key matches the value's seal key.
func Unseal(v *Value, key *SealKey) (*Value, bool) {
	if v.kind != KindSeal {
		return nil, false
	}
	if v.sealKey != key {
		return nil, false
	}
	return v.tail, true
}

// IsSealed reports whether v is a sealed envelope.
func IsSealed(v *Value) bool { return v.kind == KindSeal }

// IsLinear reports whether v is a sealed envelope with the linear
// (no-copy, no-drop) restriction set. False for anything unsealed.
func IsLinear(v *Value) bool { return v.kind == KindSeal && v.linear }
