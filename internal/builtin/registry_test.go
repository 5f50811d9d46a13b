package builtin

import (
	"testing"

	"sentra/internal/memory"
	"sentra/internal/value"
)

func TestRegisterExposesACallableByName(t *testing.T) {
	h := memory.NewHeap()
	r := New(h, nil)
	r.Register("double", func(args *value.Object) (*value.Object, *value.OpError) {
		vals := argsSlice(args)
		return value.NewInt(vals[0].I * 2), nil
	})

	bindings := r.Bindings()
	lam, ok := bindings["double"]
	if !ok {
		t.Fatalf("Bindings() is missing the registered name")
	}
	if !lam.HasAlias("double") {
		t.Fatalf("the callable's lambda should carry its registered name as an alias")
	}
}

func TestBindingsReturnsACopyNotTheLiveMap(t *testing.T) {
	h := memory.NewHeap()
	r := New(h, nil)
	r.Register("noop", func(args *value.Object) (*value.Object, *value.OpError) {
		return value.NewNull(), nil
	})

	b1 := r.Bindings()
	delete(b1, "noop")
	b2 := r.Bindings()
	if _, ok := b2["noop"]; !ok {
		t.Fatalf("mutating one Bindings() result should not affect the registry's own table")
	}
}

func TestNewDefaultRegistersPrintSleepGCStats(t *testing.T) {
	h := memory.NewHeap()
	r := NewDefault(h, nil)
	bindings := r.Bindings()
	for _, name := range []string{"print", "sleep", "gc_stats"} {
		if _, ok := bindings[name]; !ok {
			t.Errorf("NewDefault did not register %q", name)
		}
	}
}

func TestArgsSliceUnwrapsNamedAndKeyVal(t *testing.T) {
	plain := value.NewTuple([]*value.Object{
		value.NewInt(1),
		value.NewNamed("b", value.NewInt(2)),
		value.NewKeyVal(value.NewString("k"), value.NewInt(3)),
	})
	out := argsSlice(plain)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	if out[0].I != 1 || out[1].I != 2 || out[2].I != 3 {
		t.Fatalf("argsSlice did not unwrap Named/KeyVal down to their value side: %+v", out)
	}
}

func TestArgsSliceOnNonTupleIsNil(t *testing.T) {
	if argsSlice(value.NewInt(1)) != nil {
		t.Fatalf("argsSlice on a non-Tuple argument object should return nil")
	}
}

func TestDisplayStringFormatsEachPrimitiveKind(t *testing.T) {
	cases := []struct {
		v    *value.Object
		want string
	}{
		{value.NewString("hi"), "hi"},
		{value.NewInt(7), "7"},
		{value.NewFloat(1.5), "1.5"},
		{value.NewBool(true), "true"},
		{value.NewNull(), "null"},
	}
	for _, c := range cases {
		if got := displayString(c.v); got != c.want {
			t.Errorf("displayString(%+v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestGCStatsReflectsHeapState(t *testing.T) {
	h := memory.NewHeap()
	r := NewDefault(h, nil)
	h.Alloc(value.NewInt(1))

	bindings := r.Bindings()
	fn := bindings["gc_stats"].Lam.NativeBody.Nat.Lookup
	callable, ok := fn("gc_stats")
	if !ok {
		t.Fatalf("gc_stats did not resolve its own signature")
	}
	out, opErr := callable(value.NewTuple(nil))
	if opErr != nil {
		t.Fatalf("unexpected OpError: %+v", opErr)
	}
	live, opErr := value.GetMember(out, "live")
	if opErr != nil {
		t.Fatalf("gc_stats result missing a live field: %+v", opErr)
	}
	if live.Get().I != int64(h.Stats().LiveObjects) {
		t.Fatalf("live = %d, want %d", live.Get().I, h.Stats().LiveObjects)
	}
}
