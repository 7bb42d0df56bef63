package vm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DebuggerCLI provides a command-line interface for the debugger
type DebuggerCLI struct {
	debugger *Debugger
	scanner  *bufio.Scanner
	output   io.Writer
}

// NewDebuggerCLI creates a CLI reading commands from in and reporting to out
func NewDebuggerCLI(debugger *Debugger, in io.Reader, out io.Writer) *DebuggerCLI {
	return &DebuggerCLI{
		debugger: debugger,
		scanner:  bufio.NewScanner(in),
		output:   out,
	}
}

// Run attaches the command loop to the debugger
func (cli *DebuggerCLI) Run() {
	cli.debugger.Output = cli.output
	cli.debugger.OnStop = cli.onStop
	fmt.Fprintf(cli.output, "Debugger started. Type 'help' for commands.\n")
}

// onStop is called when the debugger stops
func (cli *DebuggerCLI) onStop(dbg *Debugger, f *Frame) error {
	dbg.PrintLocation(f)

	for {
		fmt.Fprintf(cli.output, "(tapec) ")
		if !cli.scanner.Scan() {
			if err := cli.scanner.Err(); err != nil {
				fmt.Fprintf(cli.output, "\nDebugger error: %v\n", err)
			} else {
				fmt.Fprintf(cli.output, "\nExiting debugger (EOF).\n")
			}
			dbg.Run()
			return ErrQuit
		}

		parts := strings.Fields(cli.scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help", "h":
			printHelp(cli.output)
		case "continue", "c":
			dbg.Continue()
			return nil
		case "step", "s":
			dbg.Step()
			return nil
		case "next", "n":
			dbg.StepOver(f)
			return nil
		case "run", "r":
			dbg.Run()
			return nil
		case "break", "b":
			cli.handleBreakpoint(args, f)
		case "delete", "d":
			cli.handleDeleteBreakpoint(args)
		case "list", "l":
			cli.handleListBreakpoints()
		case "tape", "t":
			cli.handleTape(args, f)
		case "where", "w":
			dbg.PrintLocation(f)
		case "quit", "q", "exit":
			dbg.Run()
			return ErrQuit
		default:
			fmt.Fprintf(cli.output, "Unknown command: %s. Type 'help' for help.\n", cmd)
		}
	}
}

func printHelp(output io.Writer) {
	help := `Debugger commands:
  help, h              - Show this help
  step, s              - Execute one instruction
  next, n              - Run the loop starting here to completion
  continue, c          - Continue execution until next breakpoint
  run, r               - Run to the end ignoring breakpoints
  break, b [index]     - Set breakpoint before instruction (default: here)
  delete, d <index>    - Delete breakpoint
  list, l              - List all breakpoints
  tape, t [n]          - Show n cells around the pointer (default 16)
  where, w             - Show the current instruction
  quit, q, exit        - Stop the program
`
	fmt.Fprint(output, help)
}

func (cli *DebuggerCLI) handleBreakpoint(args []string, f *Frame) {
	pc := f.PC
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			fmt.Fprintf(cli.output, "Invalid instruction index: %s\n", args[0])
			return
		}
		pc = n
	}
	cli.debugger.SetBreakpoint(pc)
	fmt.Fprintf(cli.output, "Breakpoint set at %04d\n", pc)
}

func (cli *DebuggerCLI) handleDeleteBreakpoint(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(cli.output, "Usage: delete <index>\n")
		return
	}
	pc, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(cli.output, "Invalid instruction index: %s\n", args[0])
		return
	}
	if cli.debugger.RemoveBreakpoint(pc) {
		fmt.Fprintf(cli.output, "Breakpoint deleted at %04d\n", pc)
	} else {
		fmt.Fprintf(cli.output, "No breakpoint at %04d\n", pc)
	}
}

func (cli *DebuggerCLI) handleListBreakpoints() {
	bps := cli.debugger.Breakpoints()
	if len(bps) == 0 {
		fmt.Fprintf(cli.output, "No breakpoints set.\n")
		return
	}
	fmt.Fprintf(cli.output, "Breakpoints:\n")
	for _, pc := range bps {
		fmt.Fprintf(cli.output, "  %04d\n", pc)
	}
}

func (cli *DebuggerCLI) handleTape(args []string, f *Frame) {
	n := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			fmt.Fprintf(cli.output, "Invalid cell count: %s\n", args[0])
			return
		}
		n = v
	}
	cli.debugger.PrintTape(f, n)
}
