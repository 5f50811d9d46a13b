// Package uuidmod wires github.com/google/uuid into the runtime as a
// native module exposing UUID generation and parsing to guest code.
package uuidmod

import (
	"sentra/internal/builtin"

	"github.com/google/uuid"
)

// Register adds a `uuid4()` callable to reg returning a fresh random UUID
// as its canonical string form.
func Register(reg *builtin.Registry) {
	mod := builtin.NewModule("uuid")
	mod.Register("uuid4", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		return heap.NewString(uuid.NewString()), nil
	})
	reg.RegisterModule(mod, "uuid4")
}
