// Package analyzer checks tape-language source without running it. Errors
// are structural faults; warnings flag code that cannot do what it appears
// to do.
package analyzer

import (
	"fmt"
	"sort"

	"github.com/funvibe/tapec/internal/program"
)

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one finding. Index counts instructions, not characters;
// Line and Column locate the symbol in the source, 1-based.
type Diagnostic struct {
	Severity Severity
	Index    int
	Line     int
	Column   int
	Message  string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Severity, d.Message)
}

// symbol is an instruction with its source position
type symbol struct {
	op     program.Op
	line   int
	column int
}

func scan(source string) []symbol {
	var syms []symbol
	line, column := 1, 0
	for _, r := range source {
		column++
		if r == '\n' {
			line, column = line+1, 0
			continue
		}
		if op, ok := program.OpFor(r); ok {
			syms = append(syms, symbol{op: op, line: line, column: column})
		}
	}
	return syms
}

// cancels reports whether b immediately undoes a
func cancels(a, b program.Op) bool {
	switch a {
	case program.OpIncrement:
		return b == program.OpDecrement
	case program.OpDecrement:
		return b == program.OpIncrement
	case program.OpMoveLeft:
		return b == program.OpMoveRight
	case program.OpMoveRight:
		return b == program.OpMoveLeft
	}
	return false
}

// Analyze returns the diagnostics for source ordered by position
func Analyze(source string) []*Diagnostic {
	syms := scan(source)
	var diags []*Diagnostic
	report := func(sev Severity, i int, format string, args ...any) {
		diags = append(diags, &Diagnostic{
			Severity: sev,
			Index:    i,
			Line:     syms[i].line,
			Column:   syms[i].column,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	var open []int
	lastCancel := -1
	for i, s := range syms {
		switch s.op {
		case program.OpLoopEnter:
			open = append(open, i)
			if i+1 < len(syms) && syms[i+1].op == program.OpLoopExit {
				report(SeverityWarning, i, "empty loop never terminates once entered")
			}
			if i > 0 && syms[i-1].op == program.OpLoopExit {
				report(SeverityWarning, i, "loop directly after a loop never runs")
			}
		case program.OpLoopExit:
			if len(open) == 0 {
				report(SeverityError, i, "']' has no matching '['")
				continue
			}
			open = open[:len(open)-1]
		}

		if i > 0 && i-1 != lastCancel && cancels(syms[i-1].op, s.op) {
			report(SeverityWarning, i-1, "'%s' followed by '%s' has no effect", syms[i-1].op, s.op)
			lastCancel = i
		}
	}
	for _, i := range open {
		report(SeverityError, i, "'[' has no matching ']'")
	}

	sort.SliceStable(diags, func(a, b int) bool { return diags[a].Index < diags[b].Index })
	return diags
}

// HasErrors reports whether any diagnostic is an error
func HasErrors(diags []*Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
