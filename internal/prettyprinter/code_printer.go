// Package prettyprinter lays out tape-language source canonically. Only
// layout changes: the printed text builds to the same instruction stream as
// the input.
package prettyprinter

import (
	"bytes"

	"github.com/funvibe/tapec/internal/program"
)

// Loops whose body is at most this many instructions, with no nested loop,
// stay on one line.
const inlineLoopBody = 8

// CodePrinter renders source with comments dropped, each non-trivial loop
// on its own lines with an indented body, and straight-line code wrapped at
// lineWidth.
type CodePrinter struct {
	buf       bytes.Buffer
	indent    int
	lineWidth int // max line width (0 = unlimited)
	column    int // current column position
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{indent: 0, lineWidth: 80, column: 0}
}

func NewCodePrinterWithWidth(width int) *CodePrinter {
	return &CodePrinter{indent: 0, lineWidth: width, column: 0}
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
	p.column = p.indent * 4
}

func (p *CodePrinter) newline() {
	if p.column > 0 {
		p.buf.WriteByte('\n')
		p.column = 0
	}
}

func (p *CodePrinter) write(op program.Op) {
	switch {
	case p.column == 0:
		p.writeIndent()
	case p.lineWidth > 0 && p.column >= p.lineWidth:
		p.buf.WriteByte('\n')
		p.writeIndent()
	}
	p.buf.WriteString(op.String())
	p.column++
}

// Format lays out source
func (p *CodePrinter) Format(source string) string {
	return p.Print(program.NewBasic(source).Ops())
}

// Print lays out ops. Unbalanced brackets are printed as they are; a stray
// LoopExit never indents below column zero.
func (p *CodePrinter) Print(ops []program.Op) string {
	p.buf.Reset()
	p.indent = 0
	p.column = 0

	for i := 0; i < len(ops); i++ {
		switch ops[i] {
		case program.OpLoopEnter:
			if end, ok := shortLoop(ops, i); ok {
				for _, op := range ops[i : end+1] {
					p.write(op)
				}
				i = end
				continue
			}
			p.newline()
			p.write(program.OpLoopEnter)
			p.newline()
			p.indent++
		case program.OpLoopExit:
			if p.indent > 0 {
				p.indent--
			}
			p.newline()
			p.write(program.OpLoopExit)
			p.newline()
		default:
			p.write(ops[i])
		}
	}
	p.newline()
	return p.buf.String()
}

// shortLoop reports whether the loop opening at start has a short body with
// no nested loop, and where it closes.
func shortLoop(ops []program.Op, start int) (int, bool) {
	for i := start + 1; i < len(ops) && i-start-1 <= inlineLoopBody; i++ {
		switch ops[i] {
		case program.OpLoopEnter:
			return 0, false
		case program.OpLoopExit:
			return i, true
		}
	}
	return 0, false
}
