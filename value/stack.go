package value

import (
	"strings"

	"code.hybscloud.com/glasrt/rterr"
)

// Stack is a thread's data stack (or stash), an ordered sequence of values
// with the top at the end of items. Grounded on
// original_source/c/api/glas.h's glas_data_* family: push/pop/swap/copy/
// drop(n), the "abc-abcabc" pattern-move DSL, and stack-to-stash transfer,
// ported from the C client API's char-buffer contract to typed Go.
type Stack struct {
	items []*Value
}

// NewStack returns an empty stack.
func NewStack() *Stack { return &Stack{} }

// Len reports the number of items on the stack.
func (s *Stack) Len() int { return len(s.items) }

// Push places v on top of the stack.
func (s *Stack) Push(v *Value) { s.items = append(s.items, v) }

// Pop removes and returns the top item, or UNDERFLOW if the stack is
// empty.
func (s *Stack) Pop() (*Value, rterr.Mask) {
	if len(s.items) == 0 {
		return nil, rterr.Mask(0).Set(rterr.UNDERFLOW)
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, 0
}

// Peek returns the top item without removing it.
func (s *Stack) Peek() (*Value, rterr.Mask) {
	if len(s.items) == 0 {
		return nil, rterr.Mask(0).Set(rterr.UNDERFLOW)
	}
	return s.items[len(s.items)-1], 0
}

// Swap exchanges the top two items.
func (s *Stack) Swap() rterr.Mask {
	n := len(s.items)
	if n < 2 {
		return rterr.Mask(0).Set(rterr.UNDERFLOW)
	}
	s.items[n-1], s.items[n-2] = s.items[n-2], s.items[n-1]
	return 0
}

// Copy duplicates the top item. Fails with LINEARITY if it carries the
// linear mark, per spec.md §4.B, unless force is true (mirrors
// glas_data_copy's force_copy_linear).
func (s *Stack) Copy(force bool) rterr.Mask {
	n := len(s.items)
	if n < 1 {
		return rterr.Mask(0).Set(rterr.UNDERFLOW)
	}
	top := s.items[n-1]
	if IsLinear(top) && !force {
		return rterr.Mask(0).Set(rterr.LINEARITY)
	}
	s.items = append(s.items, top)
	return 0
}

// Drop removes the top n items. Fails with LINEARITY if any of them
// carries the linear mark, unless force is true.
func (s *Stack) Drop(n int, force bool) rterr.Mask {
	if n < 0 || n > len(s.items) {
		return rterr.Mask(0).Set(rterr.UNDERFLOW)
	}
	if !force {
		for _, v := range s.items[len(s.items)-n:] {
			if IsLinear(v) {
				return rterr.Mask(0).Set(rterr.LINEARITY)
			}
		}
	}
	for _, v := range s.items[len(s.items)-n:] {
		ReleaseBinary(v)
	}
	s.items = s.items[:len(s.items)-n]
	return 0
}

// Transfer moves n items between s and stash, preserving relative order:
// amt > 0 moves from s to stash, amt < 0 moves from stash back to s.
// Grounded on original_source/c/api/glas.h's glas_data_stash.
func (s *Stack) Transfer(stash *Stack, amt int) rterr.Mask {
	if amt >= 0 {
		return moveTop(s, stash, amt)
	}
	return moveTop(stash, s, -amt)
}

func moveTop(src, dst *Stack, n int) rterr.Mask {
	if n > len(src.items) {
		return rterr.Mask(0).Set(rterr.UNDERFLOW)
	}
	if n == 0 {
		return 0
	}
	idx := len(src.items) - n
	moving := make([]*Value, n)
	copy(moving, src.items[idx:])
	src.items = src.items[:idx]
	dst.items = append(dst.items, moving...)
	return 0
}

// Move applies the "abc-abcabc" pattern-move DSL of
// original_source/c/api/glas.h's glas_data_move: the LHS names the top
// len(lhs) stack items, rightmost character bound to the current top;
// each LHS character may appear at most once. The stack is popped by
// len(lhs), then RHS characters are pushed back in order (rightmost ends
// up on top), each RHS character must have appeared in LHS. Reusing a
// linear-marked binding on the RHS, or dropping one silently by omitting
// it from the RHS, fails with LINEARITY unless force is true.
func (s *Stack) Move(pattern string, force bool) rterr.Mask {
	lhs, rhs, found := strings.Cut(pattern, "-")
	if !found {
		return rterr.Mask(0).Set(rterr.ERROR_OP)
	}
	n := len(lhs)
	if n > len(s.items) {
		return rterr.Mask(0).Set(rterr.UNDERFLOW)
	}
	vars := make(map[byte]*Value, n)
	for i := 0; i < n; i++ {
		c := lhs[i]
		if _, dup := vars[c]; dup {
			return rterr.Mask(0).Set(rterr.ERROR_OP)
		}
		vars[c] = s.items[len(s.items)-n+i]
	}
	counts := make(map[byte]int, n)
	for i := 0; i < len(rhs); i++ {
		c := rhs[i]
		if _, bound := vars[c]; !bound {
			return rterr.Mask(0).Set(rterr.ERROR_OP)
		}
		counts[c]++
	}
	if !force {
		for c, v := range vars {
			if IsLinear(v) && counts[c] != 1 {
				return rterr.Mask(0).Set(rterr.LINEARITY)
			}
		}
	}
	s.items = s.items[:len(s.items)-n]
	for i := 0; i < len(rhs); i++ {
		s.items = append(s.items, vars[rhs[i]])
	}
	return 0
}

// Mkp pops two items (b = top, a = below) and pushes Pair(a, b).
func (s *Stack) Mkp() rterr.Mask {
	b, err := s.Pop()
	if err.Any() {
		return err
	}
	a, err := s.Pop()
	if err.Any() {
		s.Push(b)
		return err
	}
	s.Push(Pair(a, b))
	return 0
}

// Mkl pops the top item and pushes Left(top).
func (s *Stack) Mkl() rterr.Mask {
	v, err := s.Pop()
	if err.Any() {
		return err
	}
	s.Push(Left(v))
	return 0
}

// Mkr pops the top item and pushes Right(top).
func (s *Stack) Mkr() rterr.Mask {
	v, err := s.Pop()
	if err.Any() {
		return err
	}
	s.Push(Right(v))
	return 0
}

// Unp pops a Branch and pushes its left then right child (right ends up
// on top). Fails with DATA_TYPE if the top is not a Branch.
func (s *Stack) Unp() rterr.Mask {
	v, err := s.Pop()
	if err.Any() {
		return err
	}
	if !IsPair(v) {
		s.Push(v)
		return rterr.Mask(0).Set(rterr.DATA_TYPE)
	}
	s.Push(v.left)
	s.Push(v.right)
	return 0
}

// Unl pops Left(x) and pushes x. Fails with DATA_TYPE if the top is not
// tagged Left.
func (s *Stack) Unl() rterr.Mask {
	v, err := s.Pop()
	if err.Any() {
		return err
	}
	h, t, ok := step(v)
	if !ok || !IsInl(h) {
		s.Push(v)
		return rterr.Mask(0).Set(rterr.DATA_TYPE)
	}
	s.Push(t)
	return 0
}

// Unr pops Right(x) and pushes x. Fails with DATA_TYPE if the top is not
// tagged Right.
func (s *Stack) Unr() rterr.Mask {
	v, err := s.Pop()
	if err.Any() {
		return err
	}
	h, t, ok := step(v)
	if !ok || !IsInr(h) {
		s.Push(v)
		return rterr.Mask(0).Set(rterr.DATA_TYPE)
	}
	s.Push(t)
	return 0
}

// Snapshot returns a copy of the current items, for the step engine's
// copy-on-write undo log (engine's Thread rewinds to a Snapshot on abort).
func (s *Stack) Snapshot() []*Value {
	cp := make([]*Value, len(s.items))
	copy(cp, s.items)
	return cp
}

// Restore replaces the stack contents with a previously captured
// Snapshot.
func (s *Stack) Restore(snap []*Value) {
	cp := make([]*Value, len(snap))
	copy(cp, snap)
	s.items = cp
}
