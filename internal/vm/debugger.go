package vm

import (
	"fmt"
	"io"
	"sort"
)

// DebuggerMode represents the current debugging mode
type DebuggerMode int

const (
	// ModeRun - breakpoints are ignored
	ModeRun DebuggerMode = iota
	// ModeStep - stop before every instruction
	ModeStep
	// ModeStepOver - run a whole loop, stop after its LoopExit
	ModeStepOver
	// ModeContinue - run until the next breakpoint
	ModeContinue
)

// Frame is what an interpreter exposes while stopped before an instruction
type Frame struct {
	PC          int
	Instruction string
	// LoopEnd is the index of the matching LoopExit when the instruction is
	// a LoopEnter, -1 otherwise (or when the loop is unbalanced).
	LoopEnd  int
	Pointer  int
	TapeLen  int
	Executed uint64

	cell func(int) uint16
}

// Cell returns tape cell i, wrapping like the tape does
func (f *Frame) Cell(i int) uint16 {
	if f.cell == nil {
		return 0
	}
	return f.cell(i)
}

// Debugger stops an interpreter before chosen instructions and hands control
// to OnStop. Breakpoints are instruction indices, so the same breakpoint
// fires on every loop iteration that reaches it.
type Debugger struct {
	mode           DebuggerMode
	breakpoints    map[int]bool
	stepOverTarget int

	// OnStop runs each time execution stops. Returning an error (usually
	// ErrQuit) aborts the run with that error.
	OnStop func(*Debugger, *Frame) error

	// Output receives location reports
	Output io.Writer
}

// NewDebugger creates a debugger that stops before the first instruction
func NewDebugger() *Debugger {
	return &Debugger{
		mode:        ModeStep,
		breakpoints: make(map[int]bool),
		Output:      io.Discard,
	}
}

// SetBreakpoint sets a breakpoint before instruction pc
func (d *Debugger) SetBreakpoint(pc int) {
	d.breakpoints[pc] = true
}

// RemoveBreakpoint reports whether a breakpoint existed at pc
func (d *Debugger) RemoveBreakpoint(pc int) bool {
	if !d.breakpoints[pc] {
		return false
	}
	delete(d.breakpoints, pc)
	return true
}

// ClearBreakpoints removes all breakpoints
func (d *Debugger) ClearBreakpoints() {
	d.breakpoints = make(map[int]bool)
}

// Breakpoints returns the breakpoint indices in ascending order
func (d *Debugger) Breakpoints() []int {
	result := make([]int, 0, len(d.breakpoints))
	for pc := range d.breakpoints {
		result = append(result, pc)
	}
	sort.Ints(result)
	return result
}

// ShouldBreak checks if execution should stop before instruction pc
func (d *Debugger) ShouldBreak(pc int) bool {
	switch d.mode {
	case ModeStep:
		return true
	case ModeStepOver:
		if pc == d.stepOverTarget || d.breakpoints[pc] {
			d.mode = ModeStep
			return true
		}
		return false
	case ModeContinue:
		return d.breakpoints[pc]
	default:
		return false
	}
}

// Step stops again before the next instruction
func (d *Debugger) Step() {
	d.mode = ModeStep
}

// StepOver runs the loop starting at f to completion. Anywhere else it is
// the same as Step.
func (d *Debugger) StepOver(f *Frame) {
	if f.LoopEnd < 0 {
		d.Step()
		return
	}
	d.mode = ModeStepOver
	d.stepOverTarget = f.LoopEnd + 1
}

// Continue runs until the next breakpoint
func (d *Debugger) Continue() {
	d.mode = ModeContinue
}

// Run detaches: no further stops
func (d *Debugger) Run() {
	d.mode = ModeRun
}

// stop is called by interpreters when ShouldBreak reported true
func (d *Debugger) stop(f *Frame) error {
	if d.OnStop == nil {
		return nil
	}
	return d.OnStop(d, f)
}

// PrintLocation reports where f is stopped
func (d *Debugger) PrintLocation(f *Frame) {
	marker := ""
	if d.breakpoints[f.PC] {
		marker = " [breakpoint]"
	}
	fmt.Fprintf(d.Output, "%04d %s%s\n", f.PC, f.Instruction, marker)
	fmt.Fprintf(d.Output, "     ptr=%d cell=%d executed=%d\n", f.Pointer, f.Cell(f.Pointer), f.Executed)
}

// PrintTape prints n cells starting at the window that contains the
// pointer, marking the pointer cell.
func (d *Debugger) PrintTape(f *Frame, n int) {
	if n <= 0 {
		n = 16
	}
	if n > f.TapeLen {
		n = f.TapeLen
	}
	start := f.Pointer - n/2
	if start < 0 {
		start = 0
	}
	if start+n > f.TapeLen {
		start = f.TapeLen - n
	}

	fmt.Fprintf(d.Output, "tape[%d:%d]", start, start+n)
	for i := start; i < start+n; i++ {
		if i == f.Pointer {
			fmt.Fprintf(d.Output, " <%d>", f.Cell(i))
		} else {
			fmt.Fprintf(d.Output, " %d", f.Cell(i))
		}
	}
	fmt.Fprintln(d.Output)
}
