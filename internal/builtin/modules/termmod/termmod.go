// Package termmod wires github.com/mattn/go-isatty into the runtime as a
// native module: the same terminal check a CLI uses to decide whether to
// emit ANSI color, exposed as a host built-in so guest scripts can make
// the same decision about their own stdout.
package termmod

import (
	"os"

	"sentra/internal/builtin"

	"github.com/mattn/go-isatty"
)

// Register adds `is_terminal()`, true when stdout is attached to a tty.
func Register(reg *builtin.Registry) {
	mod := builtin.NewModule("term")
	mod.Register("is_terminal", func(args builtin.GenericRef, heap *builtin.HeapHandle) (builtin.GenericRef, error) {
		fd := os.Stdout.Fd()
		tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		return heap.NewBool(tty), nil
	})
	reg.RegisterModule(mod, "is_terminal")
}
