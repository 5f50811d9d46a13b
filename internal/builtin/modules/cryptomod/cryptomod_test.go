package cryptomod

import (
	"testing"

	"sentra/internal/builtin"
	"sentra/internal/memory"
	"sentra/internal/value"
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

func TestHashThenCheckPasswordRoundTrips(t *testing.T) {
	h := memory.NewHeap()
	reg := builtin.New(h, nil)
	Register(reg)

	hash := callable(t, reg, "hash_password")
	check := callable(t, reg, "check_password")

	hashed, opErr := hash(value.NewTuple([]*value.Object{value.NewString("hunter2")}))
	if opErr != nil {
		t.Fatalf("hash_password error: %+v", opErr)
	}
	if hashed.S == "hunter2" {
		t.Fatalf("hash_password returned the plaintext unchanged")
	}

	ok, opErr := check(value.NewTuple([]*value.Object{value.NewString("hunter2"), hashed}))
	if opErr != nil {
		t.Fatalf("check_password error: %+v", opErr)
	}
	if !ok.Bl {
		t.Fatalf("check_password rejected the correct password against its own hash")
	}

	bad, opErr := check(value.NewTuple([]*value.Object{value.NewString("wrong"), hashed}))
	if opErr != nil {
		t.Fatalf("check_password error: %+v", opErr)
	}
	if bad.Bl {
		t.Fatalf("check_password accepted an incorrect password")
	}
}

func TestHashPasswordRejectsNonStringArgument(t *testing.T) {
	h := memory.NewHeap()
	reg := builtin.New(h, nil)
	Register(reg)

	_, opErr := callable(t, reg, "hash_password")(value.NewTuple([]*value.Object{value.NewInt(1)}))
	if opErr == nil {
		t.Fatalf("expected an error for a non-String argument")
	}
}
