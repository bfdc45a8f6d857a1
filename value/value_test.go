package value_test

import (
	"testing"

	"code.hybscloud.com/glasrt/value"
)

func TestEqualAcrossRepresentations(t *testing.T) {
	binary := value.PushBinaryCopy([]byte{1, 2, 3})
	vs := value.ToSlice(binary)
	array := value.FromSlice(vs)
	spine := value.Cons(vs[0], value.Cons(vs[1], value.Cons(vs[2], value.Leaf)))

	if !value.Equal(array, spine) {
		t.Fatal("array and spine encodings of the same list should be equal")
	}
	if !value.Equal(array, binary) {
		t.Fatal("array and binary encodings of the same byte list should be equal")
	}
}

func TestHashConsistentWithEqual(t *testing.T) {
	binary := value.PushBinaryCopy([]byte{9, 8})
	vs := value.ToSlice(binary)
	spine := value.Cons(vs[0], value.Cons(vs[1], value.Leaf))
	if !value.Equal(binary, spine) {
		t.Fatal("precondition: binary and spine must be equal")
	}
	if value.Hash(binary) != value.Hash(spine) {
		t.Fatal("equal values must hash equal")
	}
}

func TestPairMkpUnp(t *testing.T) {
	s := value.NewStack()
	s.Push(value.IntToValue(1))
	s.Push(value.IntToValue(2))
	if err := s.Mkp(); err.Any() {
		t.Fatalf("Mkp: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("after Mkp, Len()=%d, want 1", s.Len())
	}
	if err := s.Unp(); err.Any() {
		t.Fatalf("Unp: %v", err)
	}
	top, err := s.Pop()
	if err.Any() {
		t.Fatalf("Pop: %v", err)
	}
	if !value.Equal(top, value.IntToValue(2)) {
		t.Fatalf("top=%v, want 2", top)
	}
}

func TestLeftRightUnlUnr(t *testing.T) {
	s := value.NewStack()
	s.Push(value.IntToValue(5))
	if err := s.Mkl(); err.Any() {
		t.Fatalf("Mkl: %v", err)
	}
	if err := s.Unl(); err.Any() {
		t.Fatalf("Unl: %v", err)
	}
	top, _ := s.Pop()
	if !value.Equal(top, value.IntToValue(5)) {
		t.Fatal("Mkl/Unl round trip changed the value")
	}

	s.Push(value.IntToValue(5))
	if err := s.Mkl(); err.Any() {
		t.Fatalf("Mkl: %v", err)
	}
	if err := s.Unr(); !err.Any() {
		t.Fatal("Unr on a Left value should fail")
	}
}
