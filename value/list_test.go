package value_test

import (
	"testing"

	"code.hybscloud.com/glasrt/value"
)

func TestFromSliceLargeSplitsIntoDigitSpine(t *testing.T) {
	n := value.LargeDigitValues*2 + 3
	vs := make([]*value.Value, n)
	for i := range vs {
		vs[i] = value.IntToValue(int64(i))
	}
	list := value.FromSlice(vs)

	if value.Len(list) != n {
		t.Fatalf("Len()=%d, want %d", value.Len(list), n)
	}
	got := value.ToSlice(list)
	if len(got) != n {
		t.Fatalf("ToSlice returned %d elements, want %d", len(got), n)
	}
	for i, v := range got {
		if !value.Equal(v, value.IntToValue(int64(i))) {
			t.Fatalf("element %d = %v, want %d", i, v, i)
		}
	}
}

func TestFromSliceSmallStaysOneDigit(t *testing.T) {
	vs := []*value.Value{value.IntToValue(1), value.IntToValue(2), value.IntToValue(3)}
	list := value.FromSlice(vs)
	spine := value.Cons(vs[0], value.Cons(vs[1], value.Cons(vs[2], value.Leaf)))
	if !value.Equal(list, spine) {
		t.Fatal("small FromSlice result should equal the same elements built as a spine")
	}
}

func TestAppendMergesSmallDigitsInPlace(t *testing.T) {
	l := value.FromSlice([]*value.Value{value.IntToValue(1), value.IntToValue(2)})
	r := value.FromSlice([]*value.Value{value.IntToValue(3), value.IntToValue(4)})
	merged := value.Append(l, r)

	want := []*value.Value{value.IntToValue(1), value.IntToValue(2), value.IntToValue(3), value.IntToValue(4)}
	got := value.ToSlice(merged)
	if len(got) != len(want) {
		t.Fatalf("ToSlice returned %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if !value.Equal(got[i], want[i]) {
			t.Fatalf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAppendRepeatedlyStaysCorrect(t *testing.T) {
	list := value.Leaf
	n := 200
	for i := 0; i < n; i++ {
		list = value.Append(list, value.FromSlice([]*value.Value{value.IntToValue(int64(i))}))
	}
	if value.Len(list) != n {
		t.Fatalf("Len()=%d, want %d", value.Len(list), n)
	}
	got := value.ToSlice(list)
	for i, v := range got {
		if !value.Equal(v, value.IntToValue(int64(i))) {
			t.Fatalf("element %d = %v, want %d", i, v, i)
		}
	}
}

func TestBinaryFromBytesLargeSplitsIntoDigitSpine(t *testing.T) {
	n := value.LargeDigitBytes*2 + 5
	bs := make([]byte, n)
	for i := range bs {
		bs[i] = byte(i)
	}
	list := value.BinaryFromBytes(bs)

	if value.Len(list) != n {
		t.Fatalf("Len()=%d, want %d", value.Len(list), n)
	}
	got, ok := value.PeekBinary(list)
	if !ok {
		t.Fatal("PeekBinary should succeed on a large binary digit spine")
	}
	if len(got) != n {
		t.Fatalf("PeekBinary returned %d bytes, want %d", len(got), n)
	}
	for i, b := range got {
		if b != byte(i) {
			t.Fatalf("byte %d = %d, want %d", i, b, byte(i))
		}
	}
}
