package choice_test

import (
	"context"
	"testing"

	"code.hybscloud.com/glasrt/choice"
	"code.hybscloud.com/glasrt/engine"
	"code.hybscloud.com/glasrt/namespace"
	"code.hybscloud.com/glasrt/register"
	"code.hybscloud.com/glasrt/rterr"
	"code.hybscloud.com/glasrt/value"
)

func newOrigin() (*engine.Thread, *engine.Pool) {
	store := register.NewStore()
	pool := engine.NewPool(4)
	th := engine.New(store, pool, namespace.Empty())
	th.Push(value.IntToValue(7))
	return th, pool
}

func TestRaceCleanWinnerBeatsFailingClones(t *testing.T) {
	origin, pool := newOrigin()
	clean := origin.Fork(1)
	failA := origin.Fork(1)
	failB := origin.Fork(1)

	clones := []choice.Clone{
		{Thread: failA, Run: func(th *engine.Thread) rterr.Mask {
			_, err := th.Pop()
			_, err2 := th.Pop() // underflow: only 1 item was forked in
			if err.Any() {
				return err
			}
			return err2
		}},
		{Thread: clean, Run: func(th *engine.Thread) rterr.Mask {
			return th.Commit()
		}},
		{Thread: failB, Run: func(th *engine.Thread) rterr.Mask {
			th.Raise(rterr.ASSERT)
			return th.Errors()
		}},
	}

	result := choice.Race(context.Background(), pool, clones)
	if result.Thread != clean {
		t.Fatal("Race should pick the only clone with a clean (zero-mask) result")
	}
	if result.Mask.Any() {
		t.Fatalf("winner's mask=%v, want 0", result.Mask)
	}
	for _, c := range []*engine.Thread{failA, failB} {
		if !c.Errors().Has(rterr.UNCREATED) {
			t.Fatal("every losing clone should be marked UNCREATED")
		}
	}
}

func TestRaceNoCleanWinnerPicksFirstDone(t *testing.T) {
	origin, pool := newOrigin()
	a := origin.Fork(1)
	b := origin.Fork(1)

	clones := []choice.Clone{
		{Thread: a, Run: func(th *engine.Thread) rterr.Mask {
			th.Raise(rterr.ASSERT)
			return th.Errors()
		}},
		{Thread: b, Run: func(th *engine.Thread) rterr.Mask {
			th.Raise(rterr.ERROR_OP)
			return th.Errors()
		}},
	}

	result := choice.Race(context.Background(), pool, clones)
	if result.Index != 0 && result.Index != 1 {
		t.Fatalf("Index=%d, want 0 or 1", result.Index)
	}
	if !result.Mask.Any() {
		t.Fatal("neither clone was clean, winner should still carry its own failure mask")
	}
}

func TestRaceEmptyClonesFails(t *testing.T) {
	_, pool := newOrigin()
	result := choice.Race(context.Background(), pool, nil)
	if !result.Mask.Has(rterr.CLIENT) {
		t.Fatalf("Race with no clones should fail CLIENT, got %v", result.Mask)
	}
}
