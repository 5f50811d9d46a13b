package vm

import (
	"sentra/internal/bytecode"
	"sentra/internal/errors"
	"sentra/internal/execctx"
	"sentra/internal/memory"
	"sentra/internal/value"
)

// Interp drives a single Context through its instruction stream. It holds
// only the heap: builtins are ordinary Lambda values reached through normal
// name lookup, so no separate registry pointer is needed here.
type Interp struct {
	Heap *memory.Heap
}

func New(h *memory.Heap) *Interp { return &Interp{Heap: h} }

// StepUntilYieldOrDone runs ctx's instruction stream until it yields
// (spawn-task/await-task/emit), completes, or fails with an unhandled raise.
// This is the pure state-transformer the scheduler drives; it blocks only
// while a native call (such as sleep) blocks, and never itself decides task
// ordering.
func (ip *Interp) StepUntilYieldOrDone(ctx *execctx.Context) Outcome {
	for {
		out, halt := ip.step(ctx)
		if halt {
			return out
		}
	}
}

func (ip *Interp) constStr(ctx *execctx.Context, idx int) string {
	return ctx.Code.Constants[idx].Str
}

func (ip *Interp) constValue(c bytecode.Const) *value.Object {
	switch c.Kind {
	case bytecode.ConstInt:
		return value.NewInt(c.Int)
	case bytecode.ConstFloat:
		return value.NewFloat(c.Float)
	case bytecode.ConstString:
		return value.NewString(c.Str)
	case bytecode.ConstBytes:
		return value.NewBytes(append([]byte(nil), c.Bytes...))
	default:
		return value.NewNull()
	}
}

// trackFresh tracks v (and, recursively, any untracked object it owns) into
// the heap and retains every node for exactly the one new incoming edge it
// just gained: the root's new external owner, or — for a node that already
// existed, e.g. an element a Range-slice now shares with its source tuple —
// the one new edge from its new parent. Already-tracked leaves stop the
// recursion, so a shared subgraph's existing internal counts are untouched.
func (ip *Interp) trackFresh(v *value.Object) *value.Object {
	if v == nil {
		return v
	}
	if v.ID() != 0 {
		ip.Heap.Retain(v)
		return v
	}
	ip.Heap.Alloc(v)
	ip.Heap.Retain(v)
	for _, c := range v.OwnedRefs() {
		ip.trackFresh(c)
	}
	return v
}

// raiseValue implements `raise` over a value already on the operand stack
// (and therefore already tracked): it unwinds to the nearest boundary frame,
// or reports the task as failed if there is none.
func (ip *Interp) raiseValue(ctx *execctx.Context, v *value.Object) (Outcome, bool) {
	catchIP, found := ctx.Raise(v)
	if !found {
		return Outcome{Status: StatusFailed, Result: v}, true
	}
	ctx.IP = catchIP
	return Outcome{}, false
}

// raiseFresh tracks a freshly built error value (from errors.New or
// errors.FromOpError) before raising it.
func (ip *Interp) raiseFresh(ctx *execctx.Context, v *value.Object) (Outcome, bool) {
	return ip.raiseValue(ctx, ip.trackFresh(v))
}

func (ip *Interp) step(ctx *execctx.Context) (Outcome, bool) {
	instr, ok := ctx.Code.At(ctx.IP)
	if !ok {
		return ip.execReturn(ctx, ip.trackFresh(value.NewNull()))
	}
	ctx.IP++

	switch instr.Op {
	case bytecode.OpPushConst:
		v := ip.trackFresh(ip.constValue(ctx.Code.Constants[instr.A]))
		ctx.Push(v)
		return Outcome{}, false

	case bytecode.OpPop:
		ip.Heap.Release(ctx.Pop1())
		return Outcome{}, false

	case bytecode.OpDup:
		v := ctx.Peek()
		ip.Heap.Retain(v)
		ctx.Push(v)
		return Outcome{}, false

	case bytecode.OpSwap:
		a := ctx.Pop1()
		b := ctx.Pop1()
		ctx.Push(a)
		ctx.Push(b)
		return Outcome{}, false

	case bytecode.OpPackTuple:
		elems := ctx.PopN(instr.A)
		tup := value.NewTuple(elems)
		ip.Heap.Alloc(tup)
		ip.Heap.Retain(tup)
		ctx.Push(tup)
		return Outcome{}, false

	case bytecode.OpUnpack:
		v := ctx.Pop1()
		if v.Kind != value.KindTuple {
			ip.Heap.Release(v)
			return ip.raiseFresh(ctx, errors.New(errors.TypeError, "unpack target is not a Tuple"))
		}
		for _, e := range v.Tup.Elems {
			ip.Heap.Retain(e)
			ctx.Push(e)
		}
		ip.Heap.Release(v)
		return Outcome{}, false

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod, bytecode.OpPow,
		bytecode.OpAnd, bytecode.OpOr, bytecode.OpXor, bytecode.OpShl, bytecode.OpShr:
		return ip.binaryOp(ctx, instr.Op)

	case bytecode.OpEqual:
		b := ctx.Pop1()
		a := ctx.Pop1()
		eq := value.Equal(a, b)
		ip.Heap.Release(a)
		ip.Heap.Release(b)
		ctx.Push(ip.trackFresh(value.NewBool(eq)))
		return Outcome{}, false

	case bytecode.OpLess, bytecode.OpGreater, bytecode.OpLessEqual, bytecode.OpGreaterEqual:
		return ip.compareOp(ctx, instr.Op)

	case bytecode.OpNot:
		a := ctx.Pop1()
		result, err := value.Not(a)
		ip.Heap.Release(a)
		if err != nil {
			return ip.raiseFresh(ctx, errors.FromOpError(err))
		}
		ctx.Push(ip.trackFresh(result))
		return Outcome{}, false

	case bytecode.OpNeg:
		a := ctx.Pop1()
		result, err := value.Neg(a)
		ip.Heap.Release(a)
		if err != nil {
			return ip.raiseFresh(ctx, errors.FromOpError(err))
		}
		ctx.Push(ip.trackFresh(result))
		return Outcome{}, false

	case bytecode.OpDefine:
		name := ip.constStr(ctx, instr.A)
		v := ctx.Pop1()
		old := ctx.Current().Define(name, v)
		if old != nil {
			ip.Heap.Release(old)
		}
		return Outcome{}, false

	case bytecode.OpAssign:
		name := ip.constStr(ctx, instr.A)
		v := ctx.Pop1()
		slot, found := ctx.LoadDynamic(name)
		if !found {
			ip.Heap.Release(v)
			return ip.raiseFresh(ctx, execctx.NewLookupError(name))
		}
		old, inPlace, err := slot.Assign(v)
		if err != nil {
			ip.Heap.Release(v)
			return ip.raiseFresh(ctx, errors.FromOpError(err))
		}
		if inPlace {
			ip.Heap.Release(v)
		} else if old != nil {
			ip.Heap.Release(old)
		}
		return Outcome{}, false

	case bytecode.OpLoadName, bytecode.OpLoadNameDyn:
		name := ip.constStr(ctx, instr.A)
		var slot value.Slot
		var found bool
		if instr.Op == bytecode.OpLoadName {
			slot, found = ctx.LoadStatic(name)
		} else {
			slot, found = ctx.LoadDynamic(name)
		}
		if !found {
			return ip.raiseFresh(ctx, execctx.NewLookupError(name))
		}
		v := ip.trackFresh(slot.Get())
		ctx.Push(v)
		return Outcome{}, false

	case bytecode.OpMakeKeyVal:
		v := ctx.Pop1()
		k := ctx.Pop1()
		kv := value.NewKeyVal(k, v)
		ip.Heap.Alloc(kv)
		ip.Heap.Retain(kv)
		ctx.Push(kv)
		return Outcome{}, false

	case bytecode.OpMakeNamed:
		name := ip.constStr(ctx, instr.A)
		v := ctx.Pop1()
		named := value.NewNamed(name, v)
		ip.Heap.Alloc(named)
		ip.Heap.Retain(named)
		ctx.Push(named)
		return Outcome{}, false

	case bytecode.OpMakeRange:
		end := ctx.Pop1()
		start := ctx.Pop1()
		if start.Kind != value.KindInt || end.Kind != value.KindInt {
			ip.Heap.Release(start)
			ip.Heap.Release(end)
			return ip.raiseFresh(ctx, errors.New(errors.TypeError, "range bounds must be Int"))
		}
		rng := value.NewRange(start.I, end.I)
		ip.Heap.Release(start)
		ip.Heap.Release(end)
		ctx.Push(ip.trackFresh(rng))
		return Outcome{}, false

	case bytecode.OpMakeWrapper:
		inner := ctx.Pop1()
		wrap := value.NewWrapper(inner)
		ip.Heap.Alloc(wrap)
		ip.Heap.Retain(wrap)
		ctx.Push(wrap)
		return Outcome{}, false

	case bytecode.OpMakeLazyFilter:
		predicate := ctx.Pop1()
		source := ctx.Pop1()
		filt := value.NewLazyFilter(source, predicate)
		ip.Heap.Alloc(filt)
		ip.Heap.Retain(filt)
		ctx.Push(filt)
		return Outcome{}, false

	case bytecode.OpMakeLambda:
		return ip.makeLambda(ctx, instr)

	case bytecode.OpGetMember:
		return ip.getMember(ctx, instr)
	case bytecode.OpSetMember:
		return ip.setMember(ctx, instr)
	case bytecode.OpGetIndex:
		return ip.getIndex(ctx)
	case bytecode.OpSetIndex:
		return ip.setIndex(ctx)

	case bytecode.OpCall:
		return ip.call(ctx, instr)

	case bytecode.OpJump:
		ctx.IP = instr.A
		return Outcome{}, false

	case bytecode.OpJumpIfFalse:
		cond := ctx.Pop1()
		falsy := cond.Kind != value.KindBool || !cond.Bl
		ip.Heap.Release(cond)
		if falsy {
			ctx.IP = instr.A
		}
		return Outcome{}, false

	case bytecode.OpEnterFrame:
		ctx.PushBlock()
		return Outcome{}, false

	case bytecode.OpLeaveFrame:
		ip.releaseFrameBindings(ctx.Pop())
		return Outcome{}, false

	case bytecode.OpEnterBoundary:
		ctx.PushBoundary(instr.A)
		return Outcome{}, false

	case bytecode.OpLeaveBoundary:
		ip.releaseFrameBindings(ctx.Pop())
		return Outcome{}, false

	case bytecode.OpRaise:
		return ip.raiseValue(ctx, ctx.Pop1())

	case bytecode.OpReturn:
		return ip.execReturn(ctx, ctx.Pop1())

	case bytecode.OpEmit:
		v := ctx.Pop1()
		root := ctx.Frames[0]
		if root.Lambda != nil && root.Lambda.Kind == value.KindLambda {
			old := root.Lambda.Lam.Result
			root.Lambda.Lam.Result = v
			if old != nil {
				ip.Heap.Release(old)
			}
		} else {
			ip.Heap.Release(v)
		}
		return Outcome{Status: StatusYielded}, true

	case bytecode.OpBreak, bytecode.OpContinue:
		ctx.IP = instr.A
		return Outcome{}, false

	case bytecode.OpBindObject:
		return ip.bindObject(ctx)
	case bytecode.OpAttachAlias:
		name := ip.constStr(ctx, instr.A)
		v := ctx.Pop1()
		result := value.WithAlias(v, name)
		ip.Heap.Release(v)
		ctx.Push(ip.trackFresh(result))
		return Outcome{}, false
	case bytecode.OpWipeAlias:
		v := ctx.Pop1()
		result := value.Wipe(v)
		ip.Heap.Release(v)
		ctx.Push(ip.trackFresh(result))
		return Outcome{}, false
	case bytecode.OpCopy:
		v := ctx.Pop1()
		result := value.Copy(v)
		ip.Heap.Release(v)
		ctx.Push(ip.trackFresh(result))
		return Outcome{}, false
	case bytecode.OpDeepCopy:
		v := ctx.Pop1()
		result := value.DeepCopy(v, map[*value.Object]*value.Object{})
		ip.Heap.Release(v)
		ctx.Push(ip.trackFresh(result))
		return Outcome{}, false
	case bytecode.OpCollectFilter:
		return ip.collectFilter(ctx)

	case bytecode.OpSpawnTask:
		args := ctx.Pop1()
		lambda := ctx.Pop1()
		if lambda.Kind != value.KindLambda {
			ip.Heap.Release(lambda)
			ip.Heap.Release(args)
			return ip.raiseFresh(ctx, errors.New(errors.TypeError, "spawn target is not a Lambda"))
		}
		return Outcome{Status: StatusYielded, Spawn: &SpawnRequest{Lambda: lambda, Args: args}}, true

	case bytecode.OpAwaitTask:
		target := ctx.Pop1()
		return Outcome{Status: StatusYielded, AwaitTarget: target}, true

	case bytecode.OpTypeOf:
		v := ctx.Pop1()
		result := value.TypeOf(v)
		ip.Heap.Release(v)
		ctx.Push(ip.trackFresh(result))
		return Outcome{}, false
	case bytecode.OpAliasOf:
		v := ctx.Pop1()
		result := value.AliasOf(v)
		ip.Heap.Release(v)
		ctx.Push(ip.trackFresh(result))
		return Outcome{}, false
	case bytecode.OpKeyOf:
		return ip.reflectOp(ctx, value.KeyOf)
	case bytecode.OpValueOf:
		return ip.reflectOp(ctx, value.ValueOf)
	case bytecode.OpCaptureOf:
		return ip.reflectOp(ctx, value.CaptureOf)
	case bytecode.OpLengthOf:
		return ip.reflectOp(ctx, value.LengthOf)
	case bytecode.OpAssert:
		v := ctx.Pop1()
		truthy := v.Kind == value.KindBool && v.Bl
		ip.Heap.Release(v)
		if !truthy {
			return ip.raiseFresh(ctx, errors.New(errors.AssertionError, "assertion failed"))
		}
		return Outcome{}, false
	}

	return ip.raiseFresh(ctx, errors.New(errors.ModuleError, "unimplemented opcode: "+instr.Op.String()))
}

func (ip *Interp) reflectOp(ctx *execctx.Context, fn func(*value.Object) (*value.Object, *value.OpError)) (Outcome, bool) {
	v := ctx.Pop1()
	result, err := fn(v)
	ip.Heap.Release(v)
	if err != nil {
		return ip.raiseFresh(ctx, errors.FromOpError(err))
	}
	ctx.Push(ip.trackFresh(result))
	return Outcome{}, false
}

func (ip *Interp) releaseFrameBindings(f *execctx.Frame) {
	for _, b := range f.Bindings {
		ip.Heap.Release(b.Val)
	}
}

func (ip *Interp) binaryOp(ctx *execctx.Context, op bytecode.OpCode) (Outcome, bool) {
	b := ctx.Pop1()
	a := ctx.Pop1()
	var result *value.Object
	var err *value.OpError
	switch op {
	case bytecode.OpAdd:
		result, err = value.Add(a, b)
	case bytecode.OpSub:
		result, err = value.Sub(a, b)
	case bytecode.OpMul:
		result, err = value.Mul(a, b)
	case bytecode.OpDiv:
		result, err = value.Div(a, b)
	case bytecode.OpMod:
		result, err = value.Mod(a, b)
	case bytecode.OpPow:
		result, err = value.Pow(a, b)
	case bytecode.OpAnd:
		result, err = value.And(a, b)
	case bytecode.OpOr:
		result, err = value.Or(a, b)
	case bytecode.OpXor:
		result, err = value.Xor(a, b)
	case bytecode.OpShl:
		result, err = value.Shl(a, b)
	case bytecode.OpShr:
		result, err = value.Shr(a, b)
	}
	ip.Heap.Release(a)
	ip.Heap.Release(b)
	if err != nil {
		return ip.raiseFresh(ctx, errors.FromOpError(err))
	}
	ctx.Push(ip.trackFresh(result))
	return Outcome{}, false
}

func (ip *Interp) compareOp(ctx *execctx.Context, op bytecode.OpCode) (Outcome, bool) {
	b := ctx.Pop1()
	a := ctx.Pop1()
	cmp, err := value.Compare(a, b)
	ip.Heap.Release(a)
	ip.Heap.Release(b)
	if err != nil {
		return ip.raiseFresh(ctx, errors.FromOpError(err))
	}
	var result bool
	switch op {
	case bytecode.OpLess:
		result = cmp < 0
	case bytecode.OpGreater:
		result = cmp > 0
	case bytecode.OpLessEqual:
		result = cmp <= 0
	case bytecode.OpGreaterEqual:
		result = cmp >= 0
	}
	ctx.Push(ip.trackFresh(value.NewBool(result)))
	return Outcome{}, false
}

func (ip *Interp) makeLambda(ctx *execctx.Context, instr bytecode.Instruction) (Outcome, bool) {
	capture := ctx.Pop1()
	params := ctx.Pop1()
	lam := &value.LambdaData{
		Params:   params,
		CodeBody: value.NewInstructionsValue(ctx.Code),
		Entry:    instr.A,
		Static:   instr.B&1 == 1,
	}
	if capture.Kind != value.KindNull {
		lam.Capture = capture
	} else {
		ip.Heap.Release(capture)
	}
	lambda := value.NewLambda(lam)
	ip.Heap.Alloc(lambda)
	ip.Heap.Alloc(lam.CodeBody)
	ip.Heap.Retain(lam.CodeBody)
	ip.Heap.Retain(lambda)
	ctx.Push(lambda)
	return Outcome{}, false
}

func (ip *Interp) bindObject(ctx *execctx.Context) (Outcome, bool) {
	v := ctx.Pop1()
	if v.Kind != value.KindLambda {
		ip.Heap.Release(v)
		return ip.raiseFresh(ctx, errors.New(errors.TypeError, "bind target is not a Lambda"))
	}
	ld := *v.Lam
	newLam := value.NewLambda(&ld)
	ld.Self = newLam
	ip.Heap.Release(v)
	ctx.Push(ip.trackFresh(newLam))
	return Outcome{}, false
}

func (ip *Interp) getMember(ctx *execctx.Context, instr bytecode.Instruction) (Outcome, bool) {
	name := ip.constStr(ctx, instr.A)
	t := ctx.Pop1()
	slot, err := value.GetMember(t, name)
	if err != nil {
		ip.Heap.Release(t)
		return ip.raiseFresh(ctx, errors.FromOpError(err))
	}
	v := slot.Get()
	ip.Heap.Retain(v)
	ip.Heap.Release(t)
	ctx.Push(v)
	return Outcome{}, false
}

func (ip *Interp) setMember(ctx *execctx.Context, instr bytecode.Instruction) (Outcome, bool) {
	name := ip.constStr(ctx, instr.A)
	rhs := ctx.Pop1()
	t := ctx.Pop1()
	slot, err := value.GetMember(t, name)
	if err != nil {
		ip.Heap.Release(rhs)
		ip.Heap.Release(t)
		return ip.raiseFresh(ctx, errors.FromOpError(err))
	}
	old, inPlace, aerr := slot.Assign(rhs)
	if aerr != nil {
		ip.Heap.Release(rhs)
		ip.Heap.Release(t)
		return ip.raiseFresh(ctx, errors.FromOpError(aerr))
	}
	if inPlace {
		ip.Heap.Release(rhs)
	} else if old != nil {
		ip.Heap.Release(old)
	}
	ip.Heap.Release(t)
	return Outcome{}, false
}

func (ip *Interp) getIndex(ctx *execctx.Context) (Outcome, bool) {
	idx := ctx.Pop1()
	t := ctx.Pop1()
	result, err := value.Index(t, idx)
	ip.Heap.Release(idx)
	if err != nil {
		ip.Heap.Release(t)
		return ip.raiseFresh(ctx, errors.FromOpError(err))
	}
	tracked := ip.trackFresh(result)
	ip.Heap.Release(t)
	ctx.Push(tracked)
	return Outcome{}, false
}

func (ip *Interp) setIndex(ctx *execctx.Context) (Outcome, bool) {
	rhs := ctx.Pop1()
	idx := ctx.Pop1()
	t := ctx.Pop1()
	err := value.SetIndex(t, idx, rhs)
	ip.Heap.Release(idx)
	if err != nil {
		ip.Heap.Release(rhs)
		ip.Heap.Release(t)
		return ip.raiseFresh(ctx, errors.FromOpError(err))
	}
	ip.Heap.Release(t)
	return Outcome{}, false
}

func (ip *Interp) collectFilter(ctx *execctx.Context) (Outcome, bool) {
	v := ctx.Pop1()
	if v.Kind != value.KindLazyFilter {
		ip.Heap.Release(v)
		return ip.raiseFresh(ctx, errors.New(errors.TypeError, "collect target is not a LazyFilter"))
	}
	source := v.Filt.Source
	predicate := v.Filt.Predicate

	var items []*value.Object
	var owned bool // true when items are synthesized (Range), false when shared with source
	switch source.Kind {
	case value.KindTuple:
		items = source.Tup.Elems
		owned = false
	case value.KindRange:
		n := int(source.Rng.End - source.Rng.Start)
		if n < 0 {
			n = 0
		}
		items = make([]*value.Object, n)
		for i := range items {
			items[i] = value.NewInt(source.Rng.Start + int64(i))
		}
		owned = true
	default:
		ip.Heap.Release(v)
		return ip.raiseFresh(ctx, errors.New(errors.TypeError, "filter source is not iterable"))
	}

	var kept []*value.Object
	for _, item := range items {
		if owned {
			ip.Heap.Alloc(item)
			ip.Heap.Retain(item)
		}
		result, callOutcome, ok := ip.callSync(predicate, item)
		if !ok {
			ip.Heap.Release(v)
			return callOutcome, true
		}
		truthy := result.Kind == value.KindBool && result.Bl
		ip.Heap.Release(result)
		if truthy {
			ip.Heap.Retain(item)
			kept = append(kept, item)
		}
		if owned {
			ip.Heap.Release(item)
		}
	}
	ip.Heap.Release(v)

	out := value.NewTuple(kept)
	ip.Heap.Alloc(out)
	ip.Heap.Retain(out)
	ctx.Push(out)
	return Outcome{}, false
}

// callSync invokes a bytecode-bodied predicate lambda to completion, for use
// from contexts (like filter realization) that need an immediate result
// rather than a scheduler round trip. A predicate that spawns or awaits
// cannot be realized this way and fails with a ModuleError.
func (ip *Interp) callSync(lambda, arg *value.Object) (*value.Object, Outcome, bool) {
	if lambda.Kind != value.KindLambda || lambda.Lam.CodeBody == nil {
		return nil, Outcome{}, false
	}
	args := value.NewTuple([]*value.Object{value.NewNamed("it", arg)})
	ip.Heap.Alloc(args)
	ip.Heap.Retain(args)
	ip.Heap.Retain(lambda)

	sub := execctx.NewContext(lambda, args, lambda.Lam.CodeBody.Code, lambda.Lam.Entry)
	out := ip.StepUntilYieldOrDone(sub)
	switch out.Status {
	case StatusDone:
		return out.Result, Outcome{}, true
	case StatusFailed:
		return nil, out, false
	default:
		return nil, Outcome{Status: StatusFailed, Result: ip.trackFresh(errors.New(errors.ModuleError, "filter predicate cannot spawn or await"))}, false
	}
}
