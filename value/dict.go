package value

// Dict/Record values are Leaf (empty) or a bit-trie keyed by the label's
// UTF-8-null-terminated bitstring encoding, per spec.md §4.A. Each trie
// node is itself an ordinary Value — no separate Kind is introduced,
// matching spec.md §3's "derived encodings are observed, not separate
// types" — shaped as:
//
//	Pair(hasItemFlag, Pair(item, Pair(left, right)))
//
// where hasItemFlag is Left(Leaf) (absent) or Right(Leaf) (present).
// Empty subtrees collapse back to Leaf so an empty dict is always exactly
// Leaf, keeping the representation minimal and Equal-comparable directly.
//
// This is a plain (uncompacted) bit-trie rather than a true Patricia-style
// radix tree with edge compaction: it is correct and simple, at the cost
// of allocating one node per label bit rather than per label-run.

// LabelOf builds a dict label value from a Go string: its UTF-8 bytes
// followed by a single null terminator, encoded as a bitstring.
func LabelOf(s string) *Value {
	bs := append([]byte(s), 0)
	return BytesToBits(BinaryFromBytes(bs))
}

func bitPath(label *Value) []bool {
	var out []bool
	v := label
	for v.kind == KindStem {
		for i := uint8(0); i < v.stemLen; i++ {
			out = append(out, stemBitAt(v.stemBits, v.stemLen, i))
		}
		v = v.tail
	}
	return out
}

func decomposeDictNode(node *Value) (hasItem bool, item, left, right *Value) {
	if node.kind != KindBranch {
		return false, Leaf, Leaf, Leaf
	}
	hasItem = IsInr(node.left)
	rest := node.right // Pair(item, Pair(left,right))
	if rest.kind != KindBranch {
		return hasItem, Leaf, Leaf, Leaf
	}
	item = rest.left
	children := rest.right
	if children.kind != KindBranch {
		return hasItem, item, Leaf, Leaf
	}
	return hasItem, item, children.left, children.right
}

func buildDictNode(hasItem bool, item, left, right *Value) *Value {
	if !hasItem && IsUnit(left) && IsUnit(right) {
		return Leaf
	}
	flag := Left(Leaf)
	if hasItem {
		flag = Right(Leaf)
	}
	return Pair(flag, Pair(item, Pair(left, right)))
}

// DictInsert returns record with label bound to item, replacing any prior
// binding of label.
func DictInsert(record *Value, label *Value, item *Value) *Value {
	return insertBits(record, bitPath(label), item)
}

func insertBits(node *Value, bits []bool, item *Value) *Value {
	if len(bits) == 0 {
		_, _, left, right := decomposeDictNode(node)
		return buildDictNode(true, item, left, right)
	}
	hasItem, curItem, left, right := decomposeDictNode(node)
	if bits[0] {
		right = insertBits(right, bits[1:], item)
	} else {
		left = insertBits(left, bits[1:], item)
	}
	return buildDictNode(hasItem, curItem, left, right)
}

// DictRemove removes label from record, returning (item, record', true),
// or (nil, record, false) if label was not bound (spec.md §4.A: this is
// the FAIL case, left to the caller — engine ops layer — to fold into
// the appropriate error flag).
func DictRemove(record *Value, label *Value) (*Value, *Value, bool) {
	return removeBits(record, bitPath(label))
}

func removeBits(node *Value, bits []bool) (item *Value, updated *Value, ok bool) {
	if IsUnit(node) {
		return nil, node, false
	}
	hasItem, curItem, left, right := decomposeDictNode(node)
	if len(bits) == 0 {
		if !hasItem {
			return nil, node, false
		}
		return curItem, buildDictNode(false, Leaf, left, right), true
	}
	if bits[0] {
		var removed *Value
		removed, right, ok = removeBits(right, bits[1:])
		if !ok {
			return nil, node, false
		}
		return removed, buildDictNode(hasItem, curItem, left, right), true
	}
	var removed *Value
	removed, left, ok = removeBits(left, bits[1:])
	if !ok {
		return nil, node, false
	}
	return removed, buildDictNode(hasItem, curItem, left, right), true
}

// DictLookup reports the item bound to label in record, without removing it.
func DictLookup(record *Value, label *Value) (*Value, bool) {
	bits := bitPath(label)
	node := record
	for _, bit := range bits {
		if IsUnit(node) {
			return nil, false
		}
		_, _, left, right := decomposeDictNode(node)
		if bit {
			node = right
		} else {
			node = left
		}
	}
	hasItem, item, _, _ := decomposeDictNode(node)
	if !hasItem {
		return nil, false
	}
	return item, true
}
