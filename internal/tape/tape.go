// Package tape implements the circular memory tape: fixed-width cells and a
// single data pointer. Cell values and the pointer both wrap; no operation
// can fail.
package tape

import (
	"errors"
	"fmt"
)

// ErrZeroSize is returned for tape sizes that are not strictly positive
var ErrZeroSize = errors.New("tape size must be positive")

// Size is a validated, strictly positive tape length. Obtain one through
// NewSize or MustSize; the zero Size is not a valid length.
type Size struct {
	n int
}

// NewSize validates n as a tape length
func NewSize(n int) (Size, error) {
	if n <= 0 {
		return Size{}, fmt.Errorf("%w: %d", ErrZeroSize, n)
	}
	return Size{n: n}, nil
}

// MustSize is like NewSize but panics on an invalid length
func MustSize(n int) Size {
	s, err := NewSize(n)
	if err != nil {
		panic(err)
	}
	return s
}

// Int returns the length as an int
func (s Size) Int() int { return s.n }

// Cell is the set of supported cell widths
type Cell interface {
	~uint8 | ~uint16
}

// Tape is a circular array of cells with a movable index.
// A Tape belongs to exactly one interpreter and is not safe for concurrent use.
type Tape[C Cell] struct {
	cells []C
	index int
}

// New allocates a zeroed tape. It panics when handed the zero Size, which
// can only happen by bypassing NewSize.
func New[C Cell](size Size) *Tape[C] {
	if size.n <= 0 {
		panic("tape: zero Size; construct sizes with NewSize")
	}
	return &Tape[C]{cells: make([]C, size.n)}
}

// New8 returns a tape of 8-bit cells
func New8(size Size) *Tape[uint8] { return New[uint8](size) }

// New16 returns a tape of 16-bit cells
func New16(size Size) *Tape[uint16] { return New[uint16](size) }

// Change adds delta to the current cell, wrapping at the cell width
func (t *Tape[C]) Change(delta int32) {
	t.cells[t.index] += C(delta)
}

// Increment adds one to the current cell
func (t *Tape[C]) Increment() { t.cells[t.index]++ }

// Decrement subtracts one from the current cell
func (t *Tape[C]) Decrement() { t.cells[t.index]-- }

// Move shifts the index by delta, wrapping in both directions
func (t *Tape[C]) Move(delta int32) {
	n := len(t.cells)
	i := (t.index + int(delta)%n) % n
	if i < 0 {
		i += n
	}
	t.index = i
}

// MoveLeft shifts the index one cell left, wrapping from 0 to the end
func (t *Tape[C]) MoveLeft() {
	if t.index == 0 {
		t.index = len(t.cells) - 1
		return
	}
	t.index--
}

// MoveRight shifts the index one cell right, wrapping from the end to 0
func (t *Tape[C]) MoveRight() {
	t.index++
	if t.index == len(t.cells) {
		t.index = 0
	}
}

// Input stores an input character in the current cell. Characters outside
// printable ASCII range 0..126 are the end-of-input sentinel and store 0.
func (t *Tape[C]) Input(r rune) {
	if r < 0 || r >= 127 {
		t.cells[t.index] = 0
		return
	}
	t.cells[t.index] = C(r)
}

// Output returns the current cell narrowed to a byte
func (t *Tape[C]) Output() byte {
	return byte(t.cells[t.index])
}

// IsZero reports whether the current cell holds 0
func (t *Tape[C]) IsZero() bool {
	return t.cells[t.index] == 0
}

func (t *Tape[C]) Index() int { return t.index }

func (t *Tape[C]) Len() int { return len(t.cells) }

// Cell returns the value at position i, wrapping i into range
func (t *Tape[C]) Cell(i int) C {
	n := len(t.cells)
	i %= n
	if i < 0 {
		i += n
	}
	return t.cells[i]
}

// Snapshot returns a copy of the first n cells (all cells when n <= 0 or
// n exceeds the length).
func (t *Tape[C]) Snapshot(n int) []C {
	if n <= 0 || n > len(t.cells) {
		n = len(t.cells)
	}
	out := make([]C, n)
	copy(out, t.cells[:n])
	return out
}
