package scheduler

import (
	"log"

	"sentra/internal/bytecode"
	"sentra/internal/errors"
	"sentra/internal/memory"
	"sentra/internal/value"
	"sentra/internal/vm"
)

// Process exit codes. FormatMismatch is never produced by this
// package (the bytecode reader is an external collaborator) but is
// exported so cmd/sentrarun can report it consistently if a front end
// hands it a version it refuses to load.
const (
	ExitClean          = 0
	ExitUncaughtError  = 1
	ExitFormatMismatch = 2
)

// Scheduler owns the three task queues and drives them to
// completion. It is itself a memory.RootProvider: every queued task's
// context and lambda are GC roots for as long as the scheduler holds them.
type Scheduler struct {
	heap *memory.Heap
	ip   *vm.Interp

	nextID   uint64
	runnable []*Task
	waiters  map[uint64][]*Task // target task ID -> tasks parked on await-task
	byLambda map[*value.Object]*Task
	done     map[uint64]*Task
}

// New builds a scheduler over h and registers itself as a GC root provider,
// so a mark run while tasks are queued sees every one of them.
func New(h *memory.Heap) *Scheduler {
	s := &Scheduler{
		heap:     h,
		ip:       vm.New(h),
		waiters:  make(map[uint64][]*Task),
		byLambda: make(map[*value.Object]*Task),
		done:     make(map[uint64]*Task),
	}
	h.AddRootProvider(s)
	return s
}

// GCRoots implements memory.RootProvider: every runnable task and every
// task parked in a waiter set keeps its lambda and context chain alive; a
// finished task keeps only its lambda alive.
func (s *Scheduler) GCRoots() []*value.Object {
	var roots []*value.Object
	for _, t := range s.runnable {
		roots = append(roots, t.GCRoots()...)
	}
	for _, ts := range s.waiters {
		for _, t := range ts {
			roots = append(roots, t.GCRoots()...)
		}
	}
	for _, t := range s.done {
		if t.Lambda != nil {
			roots = append(roots, t.Lambda)
		}
	}
	return roots
}

func (s *Scheduler) allocID() uint64 {
	s.nextID++
	return s.nextID
}

// spawn constructs a new task for lambda(args)'s async semantics:
// a fresh context seeded only with the lambda and its argument tuple (the
// caller's lexical frames are never inherited), and enqueues it runnable.
func (s *Scheduler) spawn(lambda, args *value.Object) *Task {
	var code *bytecode.Instructions
	entry := 0
	if lambda.Lam.CodeBody != nil {
		code = lambda.Lam.CodeBody.Code
		entry = lambda.Lam.Entry
	}
	t := newTask(s.allocID(), s.heap, lambda, code, entry, args)
	s.runnable = append(s.runnable, t)
	s.byLambda[lambda] = t
	return t
}

// RunProgram is the "run one program" entry point: it builds the root task
// at code's entry named entryName (falling back to "__main__", then to
// offset 0), seeds its root frame with builtins, and drives the scheduler
// to completion.
//
// builtins are defined directly into the root task's frame (not its
// capture), so a built-in is exposed there and nowhere else automatically,
// and is not visible to tasks spawned later unless explicitly captured or
// passed as arguments.
func RunProgram(h *memory.Heap, code *bytecode.Instructions, entryName string, builtins map[string]*value.Object) (exitCode int, result *value.Object) {
	entry, ok := code.EntryOffset(entryName)
	if !ok {
		entry, ok = code.EntryOffset("__main__")
	}
	if !ok {
		entry = 0
	}

	s := New(h)
	codeObj := value.NewInstructionsValue(code)
	h.Alloc(codeObj)
	h.Retain(codeObj)
	rootLambda := h.Alloc(value.NewLambda(&value.LambdaData{
		Params:   h.Alloc(value.NewTuple(nil)),
		Entry:    entry,
		Static:   true,
		CodeBody: codeObj,
	}))
	h.Retain(rootLambda)
	h.Retain(rootLambda.Lam.Params)

	argsTuple := h.Alloc(value.NewTuple(nil))
	h.Retain(argsTuple)

	root := s.spawn(rootLambda, argsTuple)
	for name, fn := range builtins {
		root.Ctx.Current().Define(name, fn)
		h.Retain(fn)
	}

	out := s.Run()
	if out == nil {
		return ExitUncaughtError, nil
	}
	if errors.IsErr(out) {
		return ExitUncaughtError, out
	}
	return ExitClean, out
}

// Run drives the task set to completion and returns the root
// task's terminal value (nil should never happen once Run returns, since
// the root is always the first task spawned and the loop only exits when
// every task is Done/Failed).
func (s *Scheduler) Run() *value.Object {
	rootID := uint64(0)
	if len(s.runnable) > 0 {
		rootID = s.runnable[0].ID
	}

	for len(s.runnable) > 0 || len(s.waiters) > 0 {
		if len(s.runnable) == 0 {
			s.failDeadlocked()
			continue
		}

		t := s.runnable[0]
		s.runnable = s.runnable[1:]

		s.heap.CollectIfDue(false)

		out := s.ip.StepUntilYieldOrDone(t.Ctx)
		switch out.Status {
		case vm.StatusDone:
			s.finish(t, out.Result, false)
		case vm.StatusFailed:
			s.finish(t, out.Result, true)
		case vm.StatusYielded:
			s.handleYield(t, out)
		default:
			log.Printf("scheduler: unexpected task status %v", out.Status)
			s.runnable = append(s.runnable, t)
		}

		if len(s.runnable) == 0 && len(s.waiters) == 0 {
			s.heap.CollectIfDue(true)
		}
	}

	if root, ok := s.done[rootID]; ok {
		return root.result
	}
	return nil
}

// handleYield resolves the three yield shapes the interpreter contracts for: a
// spawn-task request, an await-task request, and a bare yield (the `emit`
// opcode, which does not suspend — the task is simply due to continue).
func (s *Scheduler) handleYield(t *Task, out vm.Outcome) {
	if out.Spawn != nil {
		s.spawn(out.Spawn.Lambda, out.Spawn.Args)
		// `async f(args)` evaluates to the lambda itself so the caller can
		// later await it or inspect valueof; the interpreter already left
		// it off the stack when it yielded, so the scheduler pushes it back
		// on behalf of the now-realized spawn.
		t.Ctx.Push(out.Spawn.Lambda)
		s.runnable = append(s.runnable, t)
		return
	}

	if out.AwaitTarget != nil {
		target, ok := s.byLambda[out.AwaitTarget]
		if !ok {
			// Awaiting a lambda that was never spawned (e.g. a plain
			// lambda, never `async`ed): per valueof semantics, its result
			// is simply whatever it currently holds (null if never called).
			result := out.AwaitTarget.Lam.Result
			if result == nil {
				result = s.heap.Alloc(value.NewNull())
				s.heap.Retain(result)
			}
			t.Ctx.Push(result)
			s.runnable = append(s.runnable, t)
			return
		}
		if done, ok := s.done[target.ID]; ok {
			t.Ctx.Push(done.result)
			s.runnable = append(s.runnable, t)
			return
		}
		s.waiters[target.ID] = append(s.waiters[target.ID], t)
		return
	}

	// Bare yield: `emit` already updated the task's published result; it
	// is not a suspension point, so the task simply continues.
	s.runnable = append(s.runnable, t)
}

// finish transitions t to Done/Failed, publishes its terminal value, and
// wakes every task parked on await-task for it.
func (s *Scheduler) finish(t *Task, result *value.Object, failed bool) {
	if failed {
		t.markFailed(s.heap, result)
	} else {
		t.markDone(s.heap, result)
	}
	s.done[t.ID] = t

	woken := s.waiters[t.ID]
	delete(s.waiters, t.ID)
	for _, w := range woken {
		w.Ctx.Push(result)
		s.runnable = append(s.runnable, w)
	}
}

// failDeadlocked handles the case where runnable is empty and waiters is
// not, so no task can ever make progress again. Every
// parked task is terminated the same way raise is: a boundary in its own
// context may still catch the DeadlockError and resume; absent one, the
// task's result becomes the error value.
func (s *Scheduler) failDeadlocked() {
	all := s.waiters
	s.waiters = make(map[uint64][]*Task)
	for _, tasks := range all {
		for _, t := range tasks {
			if in, ok := t.Ctx.Code.At(t.Ctx.IP); ok {
				log.Printf("scheduler: task %d deadlocked at %s", t.ID, in)
			} else {
				log.Printf("scheduler: task %d deadlocked", t.ID)
			}
			v := s.heap.Alloc(errors.New(errors.DeadlockError, "no runnable task and a non-empty waiter set"))
			s.heap.Retain(v)
			if catchIP, found := t.Ctx.Raise(v); found {
				t.Ctx.IP = catchIP
				s.runnable = append(s.runnable, t)
				continue
			}
			s.finish(t, v, true)
		}
	}
}
