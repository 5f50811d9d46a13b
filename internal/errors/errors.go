// Package errors builds the runtime's error taxonomy: ordinary values
// tagged with the alias "Err", plus a specific type alias such as
// "TypeError" or "LookupError". There is no exception type distinct from
// the value model — raising an error is raising a Tuple like any other.
package errors

import "sentra/internal/value"

const (
	TypeError       = "TypeError"
	LookupError     = "LookupError"
	IndexError      = "IndexError"
	ArgumentError   = "ArgumentError"
	ArithmeticError = "ArithmeticError"
	IOError         = "IOError"
	ModuleError     = "ModuleError"
	DeadlockError   = "DeadlockError"
	AssertionError  = "AssertionError"
)

// ErrAlias is attached to every error value so `aliasof` lets user code
// recognize an error regardless of its more specific type alias.
const ErrAlias = "Err"

// New builds an untracked error value: a Tuple of Named "message" fields
// tagged with (kind, "Err"). Like every value-model constructor it is bare;
// the caller tracks it into the heap before raising it.
func New(kind, message string) *value.Object {
	body := value.NewTuple([]*value.Object{
		value.NewNamed("message", value.NewString(message)),
	})
	tagged := value.WithAlias(body, ErrAlias)
	tagged = value.WithAlias(tagged, kind)
	return tagged
}

// FromOpError lifts a pure value-model operator failure into a raised error
// value.
func FromOpError(err *value.OpError) *value.Object {
	return New(err.Kind, err.Message)
}

// Message extracts the "message" field of an error value produced by New,
// or the empty string if v does not look like one.
func Message(v *value.Object) string {
	if v == nil || v.Kind != value.KindTuple {
		return ""
	}
	slot, opErr := value.GetMember(v, "message")
	if opErr != nil {
		return ""
	}
	m := slot.Get()
	if m.Kind == value.KindString {
		return m.S
	}
	return ""
}

// IsErr reports whether v carries the Err alias.
func IsErr(v *value.Object) bool {
	return v != nil && v.HasAlias(ErrAlias)
}
