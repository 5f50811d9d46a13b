// Package execctx implements a task's execution context: the frame stack and
// operand stack described in the runtime's component design, lexical/dynamic
// name resolution over that stack, argument binding at call time, and the
// boundary/raise non-local control mechanism.
package execctx

import (
	"sentra/internal/bytecode"
	"sentra/internal/value"
)

// Kind discriminates the three frame shapes a Context stacks.
type Kind uint8

const (
	FuncFrame Kind = iota
	BlockFrame
	BoundaryFrame
)

// Binding is the addressable storage cell a name resolves to. It exists so
// value.Slot can be handed out for a binding the same way it is handed out
// for a tuple element or a pair's value.
type Binding struct {
	Val *value.Object
}

// Frame is one entry of a task's frame stack. Function frames additionally
// carry the callee, its argument tuple, and where to resume the caller;
// boundary frames additionally carry the catch target. Block frames use
// only the fields common to all three.
type Frame struct {
	Kind     Kind
	Bindings map[string]*Binding

	// Function frame fields.
	Lambda     *value.Object
	Args       *value.Object
	ReturnIP   int
	ReturnCode *bytecode.Instructions

	// Boundary frame field: the instruction index to resume at, immediately
	// after the matching OpLeaveBoundary, when a raise unwinds to here.
	CatchIP int
}

func newFrame(k Kind) *Frame {
	return &Frame{Kind: k, Bindings: make(map[string]*Binding)}
}

// Lookup checks this frame's own bindings, then — for a function frame —
// falls back to the three implicit names every call exposes: "self" (the
// callee's bound receiver, Null if it was never bound), "this" (the callee
// itself), and "arguments" (the call's bound argument tuple). These are
// views onto fields the frame already owns, not separate bindings, so they
// need no bookkeeping of their own at call time.
func (f *Frame) Lookup(name string) (*Binding, bool) {
	if b, ok := f.Bindings[name]; ok {
		return b, true
	}
	if f.Kind != FuncFrame {
		return nil, false
	}
	switch name {
	case "arguments":
		if f.Args == nil {
			return nil, false
		}
		return &Binding{Val: f.Args}, true
	case "this":
		if f.Lambda == nil {
			return nil, false
		}
		return &Binding{Val: f.Lambda}, true
	case "self":
		if f.Lambda == nil || f.Lambda.Kind != value.KindLambda {
			return nil, false
		}
		self := f.Lambda.Lam.Self
		if self == nil {
			self = value.NewNull()
		}
		return &Binding{Val: self}, true
	}
	return nil, false
}

// Define creates or replaces a binding unconditionally, backing `:=`. It
// returns whatever the binding previously held, if anything, so the caller
// can release it.
func (f *Frame) Define(name string, v *value.Object) *value.Object {
	b, ok := f.Bindings[name]
	if !ok {
		b = &Binding{}
		f.Bindings[name] = b
		b.Val = v
		return nil
	}
	old := b.Val
	b.Val = v
	return old
}

func bindingSlot(b *Binding) value.Slot {
	return value.SlotFromFuncs(
		func() *value.Object { return b.Val },
		func(v *value.Object) { b.Val = v },
	)
}
