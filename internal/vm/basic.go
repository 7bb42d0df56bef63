// Package vm executes built programs against a memory tape. The basic
// interpreter resolves loops by scanning for the partner bracket each time a
// jump is taken; the compressed interpreter jumps straight to the target
// baked into the instruction.
package vm

import (
	"fmt"
	"io"

	"github.com/funvibe/tapec/internal/program"
	"github.com/funvibe/tapec/internal/tape"
)

// Basic runs basic programs over a tape of 8-bit cells. The tape persists
// across Execute calls on the same interpreter; the program is only borrowed.
type Basic struct {
	memory *tape.Tape[uint8]
	out    io.Writer
	pc     int
	buf    [1]byte
	limit  uint64

	debugger *Debugger
}

// NewBasic creates an interpreter whose Output instructions write to out
func NewBasic(size tape.Size, out io.Writer) *Basic {
	return &Basic{
		memory: tape.New8(size),
		out:    out,
	}
}

// Tape exposes the memory tape for inspection after a run
func (m *Basic) Tape() *tape.Tape[uint8] { return m.memory }

// SetDebugger attaches d; nil detaches
func (m *Basic) SetDebugger(d *Debugger) { m.debugger = d }

// SetLimit stops later runs with ErrInstructionLimit once n instructions
// have been tallied. Zero removes the limit.
func (m *Basic) SetLimit(n uint64) { m.limit = n }

// Execute runs p from its first instruction until the stream is exhausted
// and returns the number of instructions executed. A bracket scan that runs
// off the stream stops execution with a *StructuralError.
func (m *Basic) Execute(p *program.Basic, input string) (uint64, error) {
	m.pc = 0
	in := inputBuffer{data: input}
	var count uint64

	for {
		op, ok := p.Get(m.pc)
		if !ok {
			return count, nil
		}
		if m.limit > 0 && count >= m.limit {
			return count, fmt.Errorf("%w after %d instructions", ErrInstructionLimit, count)
		}
		if m.debugger != nil && m.debugger.ShouldBreak(m.pc) {
			if err := m.debugger.stop(m.frame(p, op, count)); err != nil {
				return count, err
			}
		}
		if err := m.executeInstruction(op, p, &in); err != nil {
			return count, err
		}
		m.pc++
		count++
	}
}

func (m *Basic) executeInstruction(op program.Op, p *program.Basic, in *inputBuffer) error {
	switch op {
	case program.OpIncrement:
		m.memory.Increment()
	case program.OpDecrement:
		m.memory.Decrement()
	case program.OpMoveLeft:
		m.memory.MoveLeft()
	case program.OpMoveRight:
		m.memory.MoveRight()
	case program.OpInput:
		m.memory.Input(in.next())
	case program.OpOutput:
		m.buf[0] = m.memory.Output()
		if _, err := m.out.Write(m.buf[:]); err != nil {
			return fmt.Errorf("output: %w", err)
		}
	case program.OpLoopEnter:
		if m.memory.IsZero() {
			return m.skipLoop(p)
		}
	case program.OpLoopExit:
		if !m.memory.IsZero() {
			return m.reverseLoop(p)
		}
	}
	return nil
}

// skipLoop moves pc forward onto the matching LoopExit
func (m *Basic) skipLoop(p *program.Basic) error {
	end, ok := matchForward(p, m.pc)
	if !ok {
		return &StructuralError{Index: m.pc, Direction: Forward}
	}
	m.pc = end
	return nil
}

// matchForward finds the LoopExit matching the LoopEnter at start
func matchForward(p *program.Basic, start int) (int, bool) {
	depth := 1 // the LoopEnter at start
	for i := start + 1; ; i++ {
		op, ok := p.Get(i)
		if !ok {
			return 0, false
		}
		switch op {
		case program.OpLoopEnter:
			depth++
		case program.OpLoopExit:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
}

// reverseLoop moves pc backward onto the matching LoopEnter
func (m *Basic) reverseLoop(p *program.Basic) error {
	start := m.pc
	depth := 1 // the LoopExit at start
	for depth > 0 {
		if m.pc == 0 {
			m.pc = start
			return &StructuralError{Index: start, Direction: Backward}
		}
		m.pc--
		op, _ := p.Get(m.pc)
		switch op {
		case program.OpLoopEnter:
			depth--
		case program.OpLoopExit:
			depth++
		}
	}
	return nil
}

func (m *Basic) frame(p *program.Basic, op program.Op, executed uint64) *Frame {
	end := -1
	if op == program.OpLoopEnter {
		if i, ok := matchForward(p, m.pc); ok {
			end = i
		}
	}
	return &Frame{
		PC:          m.pc,
		Instruction: op.Name(),
		LoopEnd:     end,
		Pointer:     m.memory.Index(),
		TapeLen:     m.memory.Len(),
		Executed:    executed,
		cell:        func(i int) uint16 { return uint16(m.memory.Cell(i)) },
	}
}
