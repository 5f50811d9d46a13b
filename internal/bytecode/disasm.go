package bytecode

import (
	"fmt"
	"strings"
)

// String renders one decoded instruction for deadlock/failure logging and
// for tests that assert on which instruction a boundary resumed at. It is
// a one-way diagnostic dump, not the round-tripping textual IR of the
// native module ABI's external compiler pair.
func (in Instruction) String() string {
	if in.Debug.Line > 0 {
		return fmt.Sprintf("%-16s %6d %6d  ; %s:%d", in.Op, in.A, in.B, in.Debug.File, in.Debug.Line)
	}
	return fmt.Sprintf("%-16s %6d %6d", in.Op, in.A, in.B)
}

// String disassembles the full code object: one line per instruction,
// prefixed with its offset and an entry-point label where one lands.
func (ins *Instructions) String() string {
	labels := make(map[int][]string)
	for name, off := range ins.Entries {
		labels[off] = append(labels[off], name)
	}

	var b strings.Builder
	for i, in := range ins.Code {
		if names, ok := labels[i]; ok {
			fmt.Fprintf(&b, "%s:\n", strings.Join(names, ", "))
		}
		fmt.Fprintf(&b, "%4d  %s\n", i, in)
	}
	return b.String()
}
