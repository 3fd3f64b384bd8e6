package fn

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
)

func TestResultBasics(t *testing.T) {
	ok := Ok(5)
	if !ok.IsOk() || ok.IsErr() {
		t.Fatal("Ok should report success")
	}
	if v, err := ok.Unwrap(); v != 5 || err != nil {
		t.Fatalf("unexpected unwrap: %v %v", v, err)
	}

	boom := errors.New("boom")
	bad := Err[int](boom)
	if bad.IsOk() {
		t.Fatal("Err should report failure")
	}
	if _, err := bad.Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := bad.UnwrapOr(9); got != 9 {
		t.Fatalf("UnwrapOr fallback: %d", got)
	}
	if got := ok.UnwrapOr(9); got != 5 {
		t.Fatalf("UnwrapOr value: %d", got)
	}
}

func TestMustPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Must on an error should panic")
		}
	}()
	Err[int](errors.New("boom")).Must()
}

func TestMapResult(t *testing.T) {
	r := MapResult(Ok(3), func(n int) string { return strconv.Itoa(n * 2) })
	if v, _ := r.Unwrap(); v != "6" {
		t.Fatalf("unexpected value: %q", v)
	}
	bad := MapResult(Err[int](errors.New("boom")), strconv.Itoa)
	if bad.IsOk() {
		t.Fatal("errors must pass through MapResult")
	}
}

func TestCollect(t *testing.T) {
	all := Collect([]Result[int]{Ok(1), Ok(2)})
	if v := all.Must(); len(v) != 2 || v[0] != 1 || v[1] != 2 {
		t.Fatalf("unexpected collect: %v", v)
	}
	boom := errors.New("boom")
	bad := Collect([]Result[int]{Ok(1), Err[int](boom), Err[int](errors.New("later"))})
	if _, err := bad.Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("Collect should surface the first error, got %v", err)
	}
}

func TestThen_ShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	first := Stage[int, int](func(context.Context, int) Result[int] { return Err[int](boom) })
	called := false
	second := Stage[int, int](func(_ context.Context, n int) Result[int] {
		called = true
		return Ok(n)
	})
	r := Then(first, second)(context.Background(), 1)
	if _, err := r.Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("second stage must not run after a failure")
	}
}

func TestThen_ChainsValues(t *testing.T) {
	double := MapStage(func(n int) int { return n * 2 })
	show := MapStage(strconv.Itoa)
	r := Then(double, show)(context.Background(), 21)
	if v := r.Must(); v != "42" {
		t.Fatalf("unexpected value: %q", v)
	}
}

func TestTapStage(t *testing.T) {
	var saw int
	tap := TapStage(func(_ context.Context, n int) { saw = n })
	if v := tap(context.Background(), 7).Must(); v != 7 || saw != 7 {
		t.Fatalf("tap should pass through: v=%d saw=%d", v, saw)
	}
}

func TestTracedStage_PropagatesBothWays(t *testing.T) {
	ok := TracedStage("test.ok", MapStage(func(n int) int { return n + 1 }))
	if v := ok(context.Background(), 1).Must(); v != 2 {
		t.Fatalf("unexpected value: %d", v)
	}
	boom := errors.New("boom")
	bad := TracedStage("test.err", Stage[int, int](func(context.Context, int) Result[int] {
		return Err[int](boom)
	}))
	if _, err := bad(context.Background(), 1).Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParMapResult_OrderAndBound(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	var active, peak atomic.Int32
	out := ParMapResult(items, 4, func(n int) Result[int] {
		cur := active.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		defer active.Add(-1)
		return Ok(n * n)
	})

	for i, r := range out {
		if v := r.Must(); v != i*i {
			t.Fatalf("out[%d] = %d, want %d", i, v, i*i)
		}
	}
	if peak.Load() > 4 {
		t.Fatalf("concurrency exceeded bound: %d", peak.Load())
	}
}

func TestParMapResult_Empty(t *testing.T) {
	if out := ParMapResult(nil, 2, func(int) Result[int] { return Ok(0) }); len(out) != 0 {
		t.Fatalf("empty input should yield empty output, got %d", len(out))
	}
}

func TestFanOut(t *testing.T) {
	out := FanOut(
		func() int { return 1 },
		func() int { return 2 },
		func() int { return 3 },
	)
	for i, v := range out {
		if v != i+1 {
			t.Fatalf("out[%d] = %d", i, v)
		}
	}
}

func TestSliceHelpers(t *testing.T) {
	if got := Map([]int{1, 2, 3}, func(n int) int { return n * 10 }); got[2] != 30 {
		t.Fatalf("Map: %v", got)
	}
	if got := Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 }); len(got) != 2 {
		t.Fatalf("Filter: %v", got)
	}
	yes, no := Partition([]int{1, 2, 3, 4}, func(n int) bool { return n < 3 })
	if len(yes) != 2 || len(no) != 2 {
		t.Fatalf("Partition: %v %v", yes, no)
	}
	groups := GroupBy([]string{"aa", "b", "cc"}, func(s string) int { return len(s) })
	if len(groups[2]) != 2 || len(groups[1]) != 1 {
		t.Fatalf("GroupBy: %v", groups)
	}
	if got := Unique([]string{"x", "y", "x", "z", "y"}); len(got) != 3 || got[0] != "x" {
		t.Fatalf("Unique: %v", got)
	}
}
