package uuidmod

import (
	"testing"

	"sentra/internal/builtin"
	"sentra/internal/memory"
	"sentra/internal/value"

	"github.com/google/uuid"
)

func callable(t *testing.T, reg *builtin.Registry, name string) value.NativeCallable {
	t.Helper()
	lam, ok := reg.Bindings()[name]
	if !ok {
		t.Fatalf("Register did not expose %q", name)
	}
	fn, ok := lam.Lam.NativeBody.Nat.Lookup(name)
	if !ok {
		t.Fatalf("%q did not resolve its own signature", name)
	}
	return fn
}

func TestUUID4ReturnsAParsableRandomUUID(t *testing.T) {
	h := memory.NewHeap()
	reg := builtin.New(h, nil)
	Register(reg)

	fn := callable(t, reg, "uuid4")
	out, opErr := fn(value.NewTuple(nil))
	if opErr != nil {
		t.Fatalf("unexpected OpError: %+v", opErr)
	}
	if out.Kind != value.KindString {
		t.Fatalf("uuid4() returned Kind %v, want KindString", out.Kind)
	}
	if _, err := uuid.Parse(out.S); err != nil {
		t.Fatalf("uuid4() produced an unparsable string %q: %v", out.S, err)
	}

	second, _ := fn(value.NewTuple(nil))
	if second.S == out.S {
		t.Fatalf("two calls to uuid4() produced the same value")
	}
}
