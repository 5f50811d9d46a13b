// Package vm implements the stack-based interpreter loop: instruction
// dispatch, the call/return mechanics over execctx.Context, and non-local
// control via raise/boundary. It exposes a pure step function so the
// scheduler remains authoritative over task ordering, per the design note
// that cooperative scheduling should be structured as an explicit state
// transformer rather than built on host-language async primitives.
package vm

import "sentra/internal/value"

// Status is the discriminated result step_until_yield_or_done returns to
// the scheduler.
type Status int

const (
	StatusRunning Status = iota
	StatusYielded
	StatusDone
	StatusFailed
)

// SpawnRequest describes an `async f(args)` the scheduler must realize as a
// new task; the interpreter itself never creates tasks.
type SpawnRequest struct {
	Lambda *value.Object
	Args   *value.Object
}

// Outcome is what a step (or a run to the next yield) reports back.
type Outcome struct {
	Status Status

	// Done: the task's final value. Failed: the raised Err-aliased value
	// that had no enclosing boundary.
	Result *value.Object

	// Yielded because of await-task: the lambda whose task must finish
	// first.
	AwaitTarget *value.Object

	// Yielded because of spawn-task: what the scheduler must start, and
	// where to deliver the resulting lambda once started.
	Spawn *SpawnRequest
}
