// Package textmod wires github.com/dustin/go-humanize into the runtime as
// a native module. The same library already backs memory.Stats.String()
// for the heap's own diagnostics; this exposes the same formatting to
// guest code.
package textmod

import (
	"errors"
	"time"

	"sentra/internal/builtin"

	"github.com/dustin/go-humanize"
)

// Register adds `humanize_bytes(n)` and `humanize_time(seconds)`.
func Register(reg *builtin.Registry) {
	mod := builtin.NewModule("text")

	mod.Register("humanize_bytes", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		n, ok := intArg(args)
		if !ok {
			return builtin.Null, errors.New("humanize_bytes requires one Int argument")
		}
		return heap.NewString(humanize.Bytes(uint64(n))), nil
	})

	mod.Register("humanize_time", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		n, ok := intArg(args)
		if !ok {
			return builtin.Null, errors.New("humanize_time requires one Int argument")
		}
		then := time.Now().Add(-time.Duration(n) * time.Second)
		return heap.NewString(humanize.Time(then)), nil
	})

	reg.RegisterModule(mod, "humanize_bytes", "humanize_time")
}

func intArg(args builtin.GenericRef) (int64, bool) {
	if !builtin.IsTuple(args) || builtin.TupleLen(args) == 0 {
		return 0, false
	}
	first := builtin.TupleGet(args, 0)
	if builtin.IsInt(first) {
		return builtin.GetInt64Value(first), true
	}
	return 0, false
}
