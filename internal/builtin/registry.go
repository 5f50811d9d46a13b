package builtin

import (
	"fmt"

	"sentra/internal/concurrency"
	"sentra/internal/memory"
	"sentra/internal/value"
)

// Registry is the mapping from name to native callable: built once at
// task-root construction, read-only for the scheduler's lifetime
// thereafter. It is also the "register built-in" extension point: a host
// embeds this runtime by constructing a Registry,
// calling Register for each callable it wants to expose, then handing
// Bindings() to scheduler.RunProgram.
type Registry struct {
	heap    *memory.Heap
	pool    *concurrency.NativeCallPool
	entries map[string]*value.Object
}

// New builds an empty registry over h. pool may be nil; if set, the sleep
// built-in runs its wait on it instead of the interpreter's own goroutine,
// without touching the value model off-thread. The native modules'
// network and database calls do not use the pool.
func New(h *memory.Heap, pool *concurrency.NativeCallPool) *Registry {
	return &Registry{heap: h, pool: pool, entries: make(map[string]*value.Object)}
}

// Register is the host-facing extension point: name becomes both the
// guest-visible binding name and the Lambda's symbol alias.
func (r *Registry) Register(name string, fn value.NativeCallable) {
	mod := NewModule(name)
	mod.Register(name, func(args GenericRef, heap *HeapHandle) (GenericRef, error) {
		out, opErr := fn(args.Object())
		if opErr != nil {
			return Null, opErr
		}
		return ref(out), nil
	})
	lam, _ := mod.AsValue(r.heap, name)
	r.entries[name] = lam
}

// RegisterModule exposes every signature mod already has Register'd under
// its own guest-visible name, for the native-module wiring in
// internal/builtin/modules.
func (r *Registry) RegisterModule(mod *Module, signatures ...string) {
	for _, sig := range signatures {
		lam, ok := mod.AsValue(r.heap, sig)
		if ok {
			r.entries[sig] = lam
		}
	}
}

// Bindings returns the root task's initial binding table: every
// built-in is exposed there and nowhere else automatically, so a spawned
// task only sees a built-in if the program explicitly captured or passed
// it along, preserving task isolation.
func (r *Registry) Bindings() map[string]*value.Object {
	out := make(map[string]*value.Object, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

// Heap exposes the registry's heap for callers assembling additional
// modules (internal/builtin/modules) that need to allocate values of
// their own ahead of registration.
func (r *Registry) Heap() *memory.Heap { return r.heap }

// Pool exposes the blocking-call pool, or nil, to the same callers.
func (r *Registry) Pool() *concurrency.NativeCallPool { return r.pool }

// NewDefault builds a Registry carrying the small set of ambient built-ins
// every embedding gets for free: print (stdout, no guest-observable
// return value beyond null), sleep (waits on the call pool when there is
// one; it is not cancelable), and gc_stats (the heap diagnostics call the memory
// package's own Stats doc comment names).
func NewDefault(h *memory.Heap, pool *concurrency.NativeCallPool) *Registry {
	r := New(h, pool)
	registerCore(r)
	return r
}

func registerCore(r *Registry) {
	r.Register("print", func(args *value.Object) (*value.Object, *value.OpError) {
		for _, a := range argsSlice(args) {
			fmt.Print(displayString(a))
		}
		fmt.Println()
		return value.NewNull(), nil
	})

	r.Register("gc_stats", func(args *value.Object) (*value.Object, *value.OpError) {
		s := r.heap.Stats()
		return value.NewTuple([]*value.Object{
			value.NewNamed("live", value.NewInt(int64(s.LiveObjects))),
			value.NewNamed("allocated", value.NewInt(int64(s.TotalAllocated))),
			value.NewNamed("marks_run", value.NewInt(int64(s.MarksRun))),
			value.NewNamed("last_freed", value.NewInt(int64(s.LastMarkFreed))),
		}), nil
	})

	r.Register("sleep", sleepCallable(r))
}

func argsSlice(args *value.Object) []*value.Object {
	if args == nil || args.Kind != value.KindTuple {
		return nil
	}
	out := make([]*value.Object, 0, len(args.Tup.Elems))
	for _, e := range args.Tup.Elems {
		if e.Kind == value.KindNamed || e.Kind == value.KindKeyVal {
			out = append(out, e.Pair.Value)
		} else {
			out = append(out, e)
		}
	}
	return out
}

func displayString(v *value.Object) string {
	switch v.Kind {
	case value.KindString:
		return v.S
	case value.KindInt:
		return fmt.Sprintf("%d", v.I)
	case value.KindFloat:
		return fmt.Sprintf("%g", v.F)
	case value.KindBool:
		return fmt.Sprintf("%t", v.Bl)
	case value.KindNull:
		return "null"
	default:
		return fmt.Sprintf("<%s>", v.Kind.String())
	}
}
