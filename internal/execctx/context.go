package execctx

import (
	"sentra/internal/bytecode"
	"sentra/internal/errors"
	"sentra/internal/value"
)

// Context is the execution context a single task owns: an ordered stack of
// frames and an operand stack. Calls push Function frames onto this same
// stack rather than nesting a new Context, which is what makes the dynamic
// scope fallback able to walk into the caller's frames at all.
type Context struct {
	Frames   []*Frame
	Operands []*value.Object

	// Execution position: which code object is running and where. Calls
	// save the caller's (Code, IP) into the pushed Function frame's
	// ReturnCode/ReturnIP and restore them on return.
	Code *bytecode.Instructions
	IP   int
}

// NewContext seeds a context with a single root Function frame at the given
// code object's entry point, as the scheduler does for every task it starts.
func NewContext(root *value.Object, args *value.Object, code *bytecode.Instructions, entry int) *Context {
	ctx := &Context{Code: code, IP: entry}
	f := newFrame(FuncFrame)
	f.Lambda = root
	f.Args = args
	ctx.Frames = append(ctx.Frames, f)
	return ctx
}

func (ctx *Context) Current() *Frame { return ctx.Frames[len(ctx.Frames)-1] }

func (ctx *Context) PushBlock() *Frame {
	f := newFrame(BlockFrame)
	ctx.Frames = append(ctx.Frames, f)
	return f
}

func (ctx *Context) PushBoundary(catchIP int) *Frame {
	f := newFrame(BoundaryFrame)
	f.CatchIP = catchIP
	ctx.Frames = append(ctx.Frames, f)
	return f
}

func (ctx *Context) PushFunc(lambda, args *value.Object, returnIP int, returnCode *bytecode.Instructions) *Frame {
	f := newFrame(FuncFrame)
	f.Lambda = lambda
	f.Args = args
	f.ReturnIP = returnIP
	f.ReturnCode = returnCode
	ctx.Frames = append(ctx.Frames, f)
	return f
}

// Pop implements leave-frame: it pops the top frame without affecting
// control flow, returning it so the caller can release its bindings.
func (ctx *Context) Pop() *Frame {
	n := len(ctx.Frames) - 1
	f := ctx.Frames[n]
	ctx.Frames = ctx.Frames[:n]
	return f
}

// Push/Pop operand stack helpers.
func (ctx *Context) Push(v *value.Object) { ctx.Operands = append(ctx.Operands, v) }

func (ctx *Context) Pop1() *value.Object {
	n := len(ctx.Operands) - 1
	v := ctx.Operands[n]
	ctx.Operands = ctx.Operands[:n]
	return v
}

func (ctx *Context) PopN(n int) []*value.Object {
	start := len(ctx.Operands) - n
	out := append([]*value.Object(nil), ctx.Operands[start:]...)
	ctx.Operands = ctx.Operands[:start]
	return out
}

func (ctx *Context) Peek() *value.Object { return ctx.Operands[len(ctx.Operands)-1] }

// LoadStatic resolves name within the current function only: its own
// bindings, then outward through enclosing block/boundary frames of the
// same function, stopping at that function's own Frame. It never consults
// the capture or the caller chain.
func (ctx *Context) LoadStatic(name string) (value.Slot, bool) {
	for i := len(ctx.Frames) - 1; i >= 0; i-- {
		f := ctx.Frames[i]
		if b, ok := f.Lookup(name); ok {
			return bindingSlot(b), true
		}
		if f.Kind == FuncFrame {
			break
		}
	}
	return value.Slot{}, false
}

// LoadDynamic resolves name the way load-by-name-dynamic does: after
// exhausting the current function's own scope chain it consults that
// function's capture, and if still unresolved continues the same search
// into the caller's frames, repeating until a function frame's caller chain
// is exhausted.
func (ctx *Context) LoadDynamic(name string) (value.Slot, bool) {
	i := len(ctx.Frames) - 1
	for i >= 0 {
		funcIdx := -1
		for j := i; j >= 0; j-- {
			f := ctx.Frames[j]
			if b, ok := f.Lookup(name); ok {
				return bindingSlot(b), true
			}
			if f.Kind == FuncFrame {
				funcIdx = j
				break
			}
		}
		if funcIdx == -1 {
			return value.Slot{}, false
		}
		if lam := ctx.Frames[funcIdx].Lambda; lam != nil && lam.Kind == value.KindLambda && lam.Lam.Capture != nil {
			if slot, ok := captureSlot(lam.Lam.Capture, name); ok {
				return slot, true
			}
		}
		i = funcIdx - 1
	}
	return value.Slot{}, false
}

// captureSlot treats a capture's Named entries as further bindings.
func captureSlot(capture *value.Object, name string) (value.Slot, bool) {
	if capture.Kind != value.KindTuple {
		return value.Slot{}, false
	}
	slot, err := value.GetMember(capture, name)
	if err != nil {
		return value.Slot{}, false
	}
	return slot, true
}

// Raise implements `raise v`: it unwinds frames up to and including the
// innermost boundary, returning the boundary's catch IP. If the task has no
// enclosing boundary, found is false and the caller (the interpreter) must
// terminate the task with v as its error value.
func (ctx *Context) Raise(v *value.Object) (catchIP int, found bool) {
	for len(ctx.Frames) > 0 {
		f := ctx.Pop()
		if f.Kind == BoundaryFrame {
			ctx.Push(v)
			return f.CatchIP, true
		}
	}
	return 0, false
}

// GCRoots implements memory.RootProvider: every binding value, operand, and
// function-frame lambda/argument tuple this context currently holds alive.
func (ctx *Context) GCRoots() []*value.Object {
	var roots []*value.Object
	for _, f := range ctx.Frames {
		for _, b := range f.Bindings {
			if b.Val != nil {
				roots = append(roots, b.Val)
			}
		}
		if f.Kind == FuncFrame {
			if f.Lambda != nil {
				roots = append(roots, f.Lambda)
			}
			if f.Args != nil {
				roots = append(roots, f.Args)
			}
		}
	}
	roots = append(roots, ctx.Operands...)
	return roots
}

// NewLookupError is a convenience for the interpreter: a dynamic load that
// exhausts the whole chain raises LookupError, the only case the binding
// resolution itself produces an error value.
func NewLookupError(name string) *value.Object {
	return errors.New(errors.LookupError, "undefined name: "+name)
}
