// Package scheduler implements the single-threaded cooperative scheduler:
// a task set multiplexed over one instruction-level interpreter, with
// `async`/`await`/`emit` realized as the only suspension points. It exposes
// the "run one program" entry point that drives a task set to completion.
package scheduler

import (
	"sentra/internal/bytecode"
	"sentra/internal/execctx"
	"sentra/internal/memory"
	"sentra/internal/value"
)

// taskStatus mirrors vm.Status but adds the scheduler-only Awaiting state a
// task occupies while parked in a waiter set.
type taskStatus int

const (
	tsRunnable taskStatus = iota
	tsAwaiting
	tsDone
	tsFailed
)

// Task pairs an execution context with the user-visible Lambda object the
// rest of the runtime observes it through: `async f(args)` returns exactly
// this Lambda, and its Result field is what `valueof`/`await` read.
type Task struct {
	ID     uint64
	Ctx    *execctx.Context
	Lambda *value.Object // the task's own Lambda, result slot doubles as its published value

	status taskStatus
	result *value.Object // terminal value: Done's return or Failed's unhandled raise

	// Canceled is a per-task flag for host code. Nothing in this module
	// sets it, and neither the interpreter nor any built-in reads it.
	Canceled bool
}

// GCRoots implements memory.RootProvider for a single task: its entire
// context chain (frames, bindings, operand stack) plus the task's own
// lambda.
func (t *Task) GCRoots() []*value.Object {
	roots := t.Ctx.GCRoots()
	if t.Lambda != nil {
		roots = append(roots, t.Lambda)
	}
	return roots
}

// newTask builds a task for a Lambda about to start running at its body's
// entry point. The new context does not inherit any lexical frame from
// whatever spawned it, so lam and args are the only things the new task's
// root frame starts with.
func newTask(id uint64, h *memory.Heap, lam *value.Object, code *bytecode.Instructions, entry int, args *value.Object) *Task {
	ctx := execctx.NewContext(lam, args, code, entry)
	h.Retain(lam)
	if args != nil {
		h.Retain(args)
	}
	return &Task{ID: id, Ctx: ctx, Lambda: lam}
}

func (t *Task) markDone(h *memory.Heap, v *value.Object) {
	t.status = tsDone
	t.result = v
	t.publish(h, v)
}

func (t *Task) markFailed(h *memory.Heap, v *value.Object) {
	t.status = tsFailed
	t.result = v
	t.publish(h, v)
}

// publish sets the task's lambda's cached result, the same slot `emit`
// writes through, so a finished task's final value and its last `emit` are
// observed identically by `valueof`.
func (t *Task) publish(h *memory.Heap, v *value.Object) {
	if t.Lambda == nil || t.Lambda.Kind != value.KindLambda {
		return
	}
	old := t.Lambda.Lam.Result
	t.Lambda.Lam.Result = v
	h.Retain(v)
	if old != nil {
		h.Release(old)
	}
}
