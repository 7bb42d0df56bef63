package program

import (
	"errors"
	"fmt"
)

// ErrUnbalanced matches every bracket-structure fault, whether it is found
// while building a compressed program or while scanning at run time.
var ErrUnbalanced = errors.New("unbalanced program")

// ErrNotBracket is returned by ResolveJump for indices that hold no bracket
var ErrNotBracket = errors.New("no jump registered at index")

// ErrCorruptBundle is wrapped by every bundle decoding failure
var ErrCorruptBundle = errors.New("corrupt bundle")

// UnbalancedError reports a bracket with no partner. Index is the position
// of the offending bracket in the instruction stream.
type UnbalancedError struct {
	Index int
	Op    Op
}

func (e *UnbalancedError) Error() string {
	if e.Op == OpLoopEnter {
		return fmt.Sprintf("unbalanced program: '[' at index %d has no matching ']'", e.Index)
	}
	return fmt.Sprintf("unbalanced program: ']' at index %d has no matching '['", e.Index)
}

func (e *UnbalancedError) Is(target error) bool {
	return target == ErrUnbalanced
}
