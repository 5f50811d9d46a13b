// cmd/sentrarun/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"sentra/internal/builtin"
	"sentra/internal/builtin/modules/cryptomod"
	"sentra/internal/builtin/modules/dbmod"
	"sentra/internal/builtin/modules/netmod"
	"sentra/internal/builtin/modules/termmod"
	"sentra/internal/builtin/modules/textmod"
	"sentra/internal/builtin/modules/uuidmod"
	"sentra/internal/bytecode"
	"sentra/internal/concurrency"
	"sentra/internal/errors"
	"sentra/internal/memory"
	"sentra/internal/scheduler"
)

const version = "0.1.0"

func main() {
	entry := flag.String("entry", "__main__", "entry point to run")
	builtinOnly := flag.Bool("builtin-only", false, "skip wiring the optional native modules (uuid, text, term, crypto, net, db)")
	poolSize := flag.Int("pool-size", 4, "max concurrent blocking native calls")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("sentrarun", version)
		return
	}

	heap := memory.NewHeap()
	pool := concurrency.NewNativeCallPool(*poolSize)
	defer pool.Close()

	reg := builtin.NewDefault(heap, pool)
	if !*builtinOnly {
		uuidmod.Register(reg)
		textmod.Register(reg)
		termmod.Register(reg)
		cryptomod.Register(reg)
		netmod.Register(reg)
		dbmod.Register(reg)
	}

	code := demoProgram()

	exitCode, result := scheduler.RunProgram(heap, code, *entry, reg.Bindings())
	if result != nil && exitCode != scheduler.ExitClean {
		fmt.Fprintln(os.Stderr, "sentrarun: task failed:", errors.Message(result))
	}
	os.Exit(exitCode)
}

// demoProgram stands in for an external front end: there is no
// textual-source compiler in this module, so the CLI assembles a small
// bytecode object by hand to exercise the registry it just built. A real
// embedding loads its own code object the same way a compiler's output
// would: by constructing *bytecode.Instructions directly.
func demoProgram() *bytecode.Instructions {
	ins := bytecode.NewInstructions()

	cPrint := ins.AddConstant(bytecode.StringConst("print"))
	cBanner := ins.AddConstant(bytecode.StringConst("sentra runtime online"))
	cGCStats := ins.AddConstant(bytecode.StringConst("gc_stats"))

	ins.Emit(bytecode.OpLoadName, cPrint, 0)
	ins.Emit(bytecode.OpPushConst, cBanner, 0)
	ins.Emit(bytecode.OpCall, 1, 0)
	ins.Emit(bytecode.OpPop, 0, 0)

	ins.Emit(bytecode.OpLoadName, cGCStats, 0)
	ins.Emit(bytecode.OpCall, 0, 0)
	ins.Emit(bytecode.OpPop, 0, 0)

	return ins
}
