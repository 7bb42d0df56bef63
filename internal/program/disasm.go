package program

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of a compressed program
func Disassemble(p *Compressed, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	for offset, ins := range p.instructions {
		disassembleInstruction(&sb, ins, offset)
	}

	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, ins Instruction, offset int) {
	sb.WriteString(fmt.Sprintf("%04d %s\n", offset, FormatInstruction(ins)))
}

// FormatInstruction renders one instruction the way listings show it
func FormatInstruction(ins Instruction) string {
	switch ins.Kind {
	case KindChange, KindMove:
		return fmt.Sprintf("%-6s %+d", ins.Kind, ins.Arg)
	case KindLoopEnter, KindLoopExit:
		return fmt.Sprintf("%-6s -> %04d", ins.Kind, ins.Arg)
	default:
		return ins.Kind.String()
	}
}

// DisassembleBasic lists a basic program. Consecutive identical ops are
// folded into one line with a repeat count to keep long runs readable.
func DisassembleBasic(p *Basic, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	for offset := 0; offset < len(p.ops); {
		op := p.ops[offset]
		run := 1
		for offset+run < len(p.ops) && p.ops[offset+run] == op && op != OpLoopEnter && op != OpLoopExit {
			run++
		}
		if run > 1 {
			sb.WriteString(fmt.Sprintf("%04d %-6s x%d\n", offset, op.Name(), run))
		} else {
			sb.WriteString(fmt.Sprintf("%04d %s\n", offset, op.Name()))
		}
		offset += run
	}

	return sb.String()
}
