package vm

import (
	"sentra/internal/bytecode"
	"sentra/internal/errors"
	"sentra/internal/execctx"
	"sentra/internal/value"
)

// call implements OpCall: the stack holds, bottom to top, the callee, A
// positional arguments, and B already-built Named arguments.
func (ip *Interp) call(ctx *execctx.Context, instr bytecode.Instruction) (Outcome, bool) {
	named := ctx.PopN(instr.B)
	positional := ctx.PopN(instr.A)
	callee := ctx.Pop1()

	if callee.Kind != value.KindLambda {
		for _, v := range positional {
			ip.Heap.Release(v)
		}
		for _, v := range named {
			ip.Heap.Release(v)
		}
		ip.Heap.Release(callee)
		return ip.raiseFresh(ctx, errors.New(errors.TypeError, "call target is not a Lambda"))
	}

	args := execctx.BindArguments(ip.Heap, callee.Lam, positional, named)

	if callee.Lam.NativeBody != nil {
		return ip.callNative(ctx, callee, args)
	}
	if callee.Lam.CodeBody == nil {
		ip.Heap.Release(args)
		ip.Heap.Release(callee)
		return ip.raiseFresh(ctx, errors.New(errors.ModuleError, "lambda has neither a bytecode nor a native body"))
	}

	ctx.PushFunc(callee, args, ctx.IP, ctx.Code)
	ctx.Code = callee.Lam.CodeBody.Code
	ctx.IP = callee.Lam.Entry
	return Outcome{}, false
}

func (ip *Interp) callNative(ctx *execctx.Context, callee, args *value.Object) (Outcome, bool) {
	if callee.Lam.NativeBody.Nat == nil || callee.Lam.NativeBody.Nat.Lookup == nil {
		ip.Heap.Release(args)
		ip.Heap.Release(callee)
		return ip.raiseFresh(ctx, errors.New(errors.ModuleError, "native module has no symbol table"))
	}
	fn, found := callee.Lam.NativeBody.Nat.Lookup(callee.Lam.Symbol)
	if !found {
		ip.Heap.Release(args)
		ip.Heap.Release(callee)
		return ip.raiseFresh(ctx, errors.New(errors.ModuleError, "unresolved native symbol: "+callee.Lam.Symbol))
	}

	ip.Heap.Pin(args)
	result, opErr := fn(args)
	ip.Heap.Unpin(args)
	ip.Heap.Release(args)
	ip.Heap.Release(callee)

	if opErr != nil {
		return ip.raiseFresh(ctx, errors.FromOpError(opErr))
	}
	if result == nil {
		result = value.NewNull()
	}
	ctx.Push(ip.trackFresh(result))
	return Outcome{}, false
}

// execReturn implements OpReturn and the implicit return-null reached when a
// code object's instruction stream runs out: it unwinds frames, releasing
// their bindings, until it pops the innermost Function frame, then restores
// the caller's execution position. Popping a non-root Function frame also
// caches v as that frame's callee's Lam.Result, the same slot `valueof`
// reads, so an ordinary call's result is visible to `valueof` just like a
// task's final value or its last `emit` is. Popping the task's own root
// frame ends the task instead of resuming anything; the root lambda's
// Result is published by the scheduler once the task is marked done, not
// here.
func (ip *Interp) execReturn(ctx *execctx.Context, v *value.Object) (Outcome, bool) {
	for {
		f := ctx.Pop()
		ip.releaseFrameBindings(f)
		if f.Kind != execctx.FuncFrame {
			continue
		}
		if f.Args != nil {
			ip.Heap.Release(f.Args)
		}
		if len(ctx.Frames) == 0 {
			return Outcome{Status: StatusDone, Result: v}, true
		}
		if f.Lambda != nil {
			if f.Lambda.Kind == value.KindLambda {
				old := f.Lambda.Lam.Result
				f.Lambda.Lam.Result = v
				ip.Heap.Retain(v)
				if old != nil {
					ip.Heap.Release(old)
				}
			}
			ip.Heap.Release(f.Lambda)
		}
		ctx.Code = f.ReturnCode
		ctx.IP = f.ReturnIP
		ctx.Push(v)
		return Outcome{}, false
	}
}
