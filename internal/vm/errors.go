package vm

import (
	"errors"
	"fmt"

	"github.com/funvibe/tapec/internal/program"
)

// ErrQuit is returned by Execute when a debugger session is quit
var ErrQuit = errors.New("debugger: quit")

// ErrInstructionLimit is returned by Execute once the tally reaches the
// limit given to SetLimit
var ErrInstructionLimit = errors.New("instruction limit reached")

// Direction of a live bracket scan
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// StructuralError is returned when a live bracket scan runs off either end
// of the instruction stream. Index is where the scan started.
type StructuralError struct {
	Index     int
	Direction Direction
}

func (e *StructuralError) Error() string {
	if e.Direction == Backward {
		return fmt.Sprintf("unbalanced program: ']' at index %d has no matching '['", e.Index)
	}
	return fmt.Sprintf("unbalanced program: '[' at index %d has no matching ']'", e.Index)
}

func (e *StructuralError) Is(target error) bool {
	return target == program.ErrUnbalanced
}
