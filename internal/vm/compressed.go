package vm

import (
	"fmt"
	"io"

	"github.com/funvibe/tapec/internal/program"
	"github.com/funvibe/tapec/internal/tape"
)

// Compressed runs compressed programs over a tape of 16-bit cells. Loop
// control flow relies entirely on the targets resolved at build time.
type Compressed struct {
	memory *tape.Tape[uint16]
	out    io.Writer
	pc     int
	buf    [1]byte
	limit  uint64

	debugger *Debugger
}

// NewCompressed creates an interpreter whose Output instructions write to out
func NewCompressed(size tape.Size, out io.Writer) *Compressed {
	return &Compressed{
		memory: tape.New16(size),
		out:    out,
	}
}

// Tape exposes the memory tape for inspection after a run
func (m *Compressed) Tape() *tape.Tape[uint16] { return m.memory }

// SetDebugger attaches d; nil detaches
func (m *Compressed) SetDebugger(d *Debugger) { m.debugger = d }

// SetLimit stops later runs with ErrInstructionLimit once n instructions
// have been tallied. Zero removes the limit.
func (m *Compressed) SetLimit(n uint64) { m.limit = n }

// Execute runs p until the stream is exhausted. Change and Move count as
// many instructions as the absolute value of their delta, so tallies stay
// comparable with the basic interpreter; everything else counts as one.
func (m *Compressed) Execute(p *program.Compressed, input string) (uint64, error) {
	m.pc = 0
	in := inputBuffer{data: input}
	var count uint64

	for {
		ins, ok := p.Get(m.pc)
		if !ok {
			return count, nil
		}
		if m.limit > 0 && count >= m.limit {
			return count, fmt.Errorf("%w after %d instructions", ErrInstructionLimit, count)
		}
		if m.debugger != nil && m.debugger.ShouldBreak(m.pc) {
			if err := m.debugger.stop(m.frame(ins, count)); err != nil {
				return count, err
			}
		}
		n, err := m.executeInstruction(ins, &in)
		if err != nil {
			return count, err
		}
		count += n
		m.pc++
	}
}

func (m *Compressed) executeInstruction(ins program.Instruction, in *inputBuffer) (uint64, error) {
	switch ins.Kind {
	case program.KindChange:
		m.memory.Change(ins.Arg)
		return magnitude(ins.Arg), nil
	case program.KindMove:
		m.memory.Move(ins.Arg)
		return magnitude(ins.Arg), nil
	case program.KindInput:
		m.memory.Input(in.next())
	case program.KindOutput:
		m.buf[0] = m.memory.Output()
		if _, err := m.out.Write(m.buf[:]); err != nil {
			return 0, fmt.Errorf("output: %w", err)
		}
	case program.KindLoopEnter:
		if m.memory.IsZero() {
			m.pc = int(ins.Arg)
		}
	case program.KindLoopExit:
		if !m.memory.IsZero() {
			m.pc = int(ins.Arg)
		}
	}
	return 1, nil
}

// magnitude is |v| without overflow for math.MinInt32
func magnitude(v int32) uint64 {
	if v < 0 {
		return uint64(-int64(v))
	}
	return uint64(v)
}

func (m *Compressed) frame(ins program.Instruction, executed uint64) *Frame {
	end := -1
	if ins.Kind == program.KindLoopEnter {
		end = int(ins.Arg)
	}
	return &Frame{
		PC:          m.pc,
		Instruction: program.FormatInstruction(ins),
		LoopEnd:     end,
		Pointer:     m.memory.Index(),
		TapeLen:     m.memory.Len(),
		Executed:    executed,
		cell:        m.memory.Cell,
	}
}
