package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/funvibe/tapec/internal/backend"
	"github.com/funvibe/tapec/internal/program"
	"github.com/funvibe/tapec/internal/tape"
	"github.com/funvibe/tapec/internal/vm"
)

// handleDebug handles `tapec debug <file> [input]`: the program runs under
// the interactive debugger, which reads its commands from stdin.
func (e *env) handleDebug() bool {
	if len(e.args) < 1 || e.args[0] != "debug" {
		return false
	}

	f, positional, err := parseFlags(e.args[1:], flagSpec{
		"dialect": true,
		"tape":    true,
		"input":   true,
		"config":  true,
		"break":   true,
	})
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	if len(positional) < 1 {
		e.usageError("usage: tapec debug <file> [input] [--break index]")
		return true
	}
	if f.str("input") == "-" {
		e.usageError("debug reads commands from stdin; pass input inline")
		return true
	}
	cfg, ok := e.loadConfig(f)
	if !ok {
		return true
	}

	path := positional[0]
	data, err := os.ReadFile(path)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}
	input, ok := e.resolveInput(f, positional[1:], cfg)
	if !ok {
		return true
	}

	ctx := newContext(string(data), path, input, cfg)
	b, err := backend.ByName(cfg.Dialect)
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	if program.IsBundle(data) {
		if ctx.Program, err = program.Deserialize(data); err != nil {
			e.fail(exitError, "%s", err)
			return true
		}
		b = backend.NewCompressed()
	}
	if err := b.Build(ctx); err != nil {
		e.fail(exitError, "%s", err)
		return true
	}

	dbg := vm.NewDebugger()
	if f.has("break") {
		pc, err := f.integer("break")
		if err != nil {
			e.usageError("%s", err)
			return true
		}
		dbg.SetBreakpoint(pc)
		dbg.Continue()
	}
	vm.NewDebuggerCLI(dbg, e.stdin, e.stdout).Run()

	count, err := e.debugProgram(ctx.Program, ctx.TapeSize, input, dbg)
	switch {
	case errors.Is(err, vm.ErrQuit):
		fmt.Fprintf(e.stdout, "\nProgram stopped after %d instructions.\n", count)
	case err != nil:
		e.fail(exitError, "%s", err)
	default:
		fmt.Fprintf(e.stdout, "\nProgram finished after %d instructions.\n", count)
	}
	return true
}

// debugProgram runs p with dbg attached. Program output is written straight
// to stdout so it interleaves with the debugger console in order.
func (e *env) debugProgram(p any, size tape.Size, input string, dbg *vm.Debugger) (uint64, error) {
	switch p := p.(type) {
	case *program.Basic:
		m := vm.NewBasic(size, e.stdout)
		m.SetDebugger(dbg)
		return m.Execute(p, input)
	case *program.Compressed:
		m := vm.NewCompressed(size, e.stdout)
		m.SetDebugger(dbg)
		return m.Execute(p, input)
	default:
		return 0, fmt.Errorf("cannot debug program of type %T", p)
	}
}
