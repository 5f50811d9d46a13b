package errors

import (
	"testing"

	"sentra/internal/value"
)

func TestNewTagsKindAndErrAlias(t *testing.T) {
	v := New(TypeError, "bad type")
	if !v.HasAlias(TypeError) {
		t.Fatalf("New(%q, ...) did not carry the kind alias", TypeError)
	}
	if !IsErr(v) {
		t.Fatalf("New(...) did not carry the Err alias")
	}
	if Message(v) != "bad type" {
		t.Fatalf("Message(v) = %q, want %q", Message(v), "bad type")
	}
}

func TestFromOpErrorPreservesKindAndMessage(t *testing.T) {
	opErr := &value.OpError{Kind: ArithmeticError, Message: "divide by zero"}
	v := FromOpError(opErr)
	if !v.HasAlias(ArithmeticError) {
		t.Fatalf("FromOpError did not carry the operator's Kind as an alias")
	}
	if Message(v) != "divide by zero" {
		t.Fatalf("Message(v) = %q, want %q", Message(v), "divide by zero")
	}
}

func TestMessageOnNonErrorValuesIsEmpty(t *testing.T) {
	cases := []*value.Object{
		nil,
		value.NewInt(1),
		value.NewString("plain string"),
		value.NewTuple(nil),
	}
	for _, v := range cases {
		if got := Message(v); got != "" {
			t.Fatalf("Message(%+v) = %q, want empty string", v, got)
		}
	}
}

func TestIsErrFalseForUntaggedValues(t *testing.T) {
	if IsErr(nil) {
		t.Fatalf("IsErr(nil) = true, want false")
	}
	if IsErr(value.NewString("boom")) {
		t.Fatalf("a bare String should not be reported as an Err value")
	}
}
