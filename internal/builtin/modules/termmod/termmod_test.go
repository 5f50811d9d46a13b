package termmod

import (
	"testing"

	"sentra/internal/builtin"
	"sentra/internal/memory"
	"sentra/internal/value"
)

func TestIsTerminalReturnsABool(t *testing.T) {
	h := memory.NewHeap()
	reg := builtin.New(h, nil)
	Register(reg)

	lam, ok := reg.Bindings()["is_terminal"]
	if !ok {
		t.Fatalf("Register did not expose is_terminal")
	}
	fn, ok := lam.Lam.NativeBody.Nat.Lookup("is_terminal")
	if !ok {
		t.Fatalf("is_terminal did not resolve its own signature")
	}

	out, opErr := fn(value.NewTuple(nil))
	if opErr != nil {
		t.Fatalf("unexpected OpError: %+v", opErr)
	}
	if out.Kind != value.KindBool {
		t.Fatalf("is_terminal() returned Kind %v, want KindBool", out.Kind)
	}
}
