package scheduler

import (
	"testing"

	"sentra/internal/bytecode"
	"sentra/internal/errors"
	"sentra/internal/memory"
	"sentra/internal/value"
)

// spawnAwaitProgram assembles a single code object with a main section at offset 0
// that spawns a child lambda (entry offset 7, in the same code object) and
// awaits it, returning whatever the child returns. This exercises the
// `async`/`await` round trip end to end: OpMakeLambda, OpSpawnTask (which
// hands the scheduler a SpawnRequest rather than running the child inline),
// and OpAwaitTask (which parks the caller until the child publishes a
// result).
func spawnAwaitProgram(childBody func(ins *bytecode.Instructions)) *bytecode.Instructions {
	ins := bytecode.NewInstructions()
	cNull := ins.AddConstant(bytecode.NullConst())

	childEntry := 7
	ins.Emit(bytecode.OpPackTuple, 0, 0)          // 0: params = ()
	ins.Emit(bytecode.OpPushConst, cNull, 0)      // 1: capture = null
	ins.Emit(bytecode.OpMakeLambda, childEntry, 1) // 2: lambda
	ins.Emit(bytecode.OpPackTuple, 0, 0)          // 3: args = ()
	ins.Emit(bytecode.OpSpawnTask, 0, 0)          // 4
	ins.Emit(bytecode.OpAwaitTask, 0, 0)          // 5
	ins.Emit(bytecode.OpReturn, 0, 0)             // 6

	if ins.Len() != childEntry {
		panic("main section length drifted from the hard-coded child entry offset")
	}
	childBody(ins)
	return ins
}

func TestRunProgramSpawnAwaitReturnsChildResult(t *testing.T) {
	ins := spawnAwaitProgram(func(ins *bytecode.Instructions) {
		c42 := ins.AddConstant(bytecode.IntConst(42))
		ins.Emit(bytecode.OpPushConst, c42, 0) // 7
		ins.Emit(bytecode.OpReturn, 0, 0)      // 8
	})

	heap := memory.NewHeap()
	exitCode, result := RunProgram(heap, ins, "__main__", nil)

	if exitCode != ExitClean {
		t.Fatalf("exitCode = %d, want ExitClean", exitCode)
	}
	if result == nil || result.Kind != value.KindInt || result.I != 42 {
		t.Fatalf("result = %+v, want Int 42", result)
	}
}

func TestRunProgramPropagatesChildFailure(t *testing.T) {
	ins := spawnAwaitProgram(func(ins *bytecode.Instructions) {
		cMsg := ins.AddConstant(bytecode.StringConst("boom"))
		cMessageKey := ins.AddConstant(bytecode.StringConst("message"))
		cErrAlias := ins.AddConstant(bytecode.StringConst(errors.ErrAlias))
		cKindAlias := ins.AddConstant(bytecode.StringConst(errors.ArithmeticError))

		ins.Emit(bytecode.OpPushConst, cMsg, 0)       // 7
		ins.Emit(bytecode.OpMakeNamed, cMessageKey, 0) // 8
		ins.Emit(bytecode.OpPackTuple, 1, 0)           // 9
		ins.Emit(bytecode.OpAttachAlias, cErrAlias, 0) // 10
		ins.Emit(bytecode.OpAttachAlias, cKindAlias, 0) // 11
		ins.Emit(bytecode.OpRaise, 0, 0)               // 12: no boundary anywhere -> task fails
	})

	heap := memory.NewHeap()
	exitCode, result := RunProgram(heap, ins, "__main__", nil)

	if exitCode != ExitUncaughtError {
		t.Fatalf("exitCode = %d, want ExitUncaughtError", exitCode)
	}
	if result == nil || errors.Message(result) != "boom" {
		t.Fatalf("result = %+v, want the raised message to propagate through await", result)
	}
	if !errors.IsErr(result) {
		t.Fatalf("result should still carry the Err alias after crossing the await boundary: %+v", result)
	}
}

// newChildLambda builds a lambda whose body is a tiny OpLoadName/OpAwaitTask/
// OpReturn sequence, used to construct a genuine scheduler-level deadlock: a
// task can only await a lambda already known to byLambda, so both lambdas
// below must be spawned before either one's body runs.
func newChildLambda(h *memory.Heap) (*value.Object, *bytecode.Instructions) {
	ins := bytecode.NewInstructions()
	cTarget := ins.AddConstant(bytecode.StringConst("target"))
	ins.Emit(bytecode.OpLoadName, cTarget, 0)
	ins.Emit(bytecode.OpAwaitTask, 0, 0)
	ins.Emit(bytecode.OpReturn, 0, 0)

	codeObj := h.Alloc(value.NewInstructionsValue(ins))
	h.Retain(codeObj)
	params := h.Alloc(value.NewTuple(nil))
	h.Retain(params)
	lam := h.Alloc(value.NewLambda(&value.LambdaData{Params: params, Entry: 0, Static: true, CodeBody: codeObj}))
	h.Retain(lam)
	return lam, ins
}

func TestMutualAwaitDeadlocks(t *testing.T) {
	h := memory.NewHeap()
	lamA, _ := newChildLambda(h)
	lamB, _ := newChildLambda(h)

	s := New(h)
	argsA := h.Alloc(value.NewTuple(nil))
	h.Retain(argsA)
	argsB := h.Alloc(value.NewTuple(nil))
	h.Retain(argsB)

	taskA := s.spawn(lamA, argsA)
	taskB := s.spawn(lamB, argsB)

	taskA.Ctx.Current().Define("target", lamB)
	h.Retain(lamB)
	taskB.Ctx.Current().Define("target", lamA)
	h.Retain(lamA)

	s.Run()

	doneA, ok := s.done[taskA.ID]
	if !ok || doneA.status != tsFailed {
		t.Fatalf("task A should have failed with a deadlock error, got %+v", doneA)
	}
	if errors.Message(doneA.result) == "" || !doneA.result.HasAlias(errors.DeadlockError) {
		t.Fatalf("task A's terminal value should be a DeadlockError: %+v", doneA.result)
	}

	doneB, ok := s.done[taskB.ID]
	if !ok || doneB.status != tsFailed {
		t.Fatalf("task B should have failed with a deadlock error, got %+v", doneB)
	}
}
