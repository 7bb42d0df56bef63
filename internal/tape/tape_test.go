package tape

import (
	"errors"
	"testing"
)

func TestNewSize(t *testing.T) {
	for _, n := range []int{0, -1, -30000} {
		if _, err := NewSize(n); !errors.Is(err, ErrZeroSize) {
			t.Errorf("NewSize(%d) err = %v, want ErrZeroSize", n, err)
		}
	}
	s, err := NewSize(7)
	if err != nil || s.Int() != 7 {
		t.Errorf("NewSize(7) = %v, %v", s.Int(), err)
	}
}

func TestNew_ZeroSizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New with the zero Size should panic")
		}
	}()
	New8(Size{})
}

// =============================================================================
// Cell arithmetic
// =============================================================================

func TestIncrement_Wraps8(t *testing.T) {
	tp := New8(MustSize(1))
	for i := 0; i < 256; i++ {
		tp.Increment()
	}
	if !tp.IsZero() {
		t.Errorf("256 increments left %d, want 0", tp.Cell(0))
	}
	tp.Decrement()
	if tp.Cell(0) != 255 {
		t.Errorf("decrement from 0 = %d, want 255", tp.Cell(0))
	}
}

func TestChange(t *testing.T) {
	tests := []struct {
		name   string
		deltas []int32
		want8  uint8
		want16 uint16
	}{
		{"positive", []int32{16}, 16, 16},
		{"negative", []int32{-1}, 255, 65535},
		{"wrap 8 bit", []int32{300}, 44, 300},
		{"wrap 16 bit", []int32{65536 + 5}, 5, 5},
		{"back to zero", []int32{1000, -1000}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t8 := New8(MustSize(2))
			t16 := New16(MustSize(2))
			for _, d := range tt.deltas {
				t8.Change(d)
				t16.Change(d)
			}
			if got := t8.Cell(0); got != tt.want8 {
				t.Errorf("8-bit cell = %d, want %d", got, tt.want8)
			}
			if got := t16.Cell(0); got != tt.want16 {
				t.Errorf("16-bit cell = %d, want %d", got, tt.want16)
			}
		})
	}
}

// =============================================================================
// Pointer movement
// =============================================================================

func TestMove_WrapsBothWays(t *testing.T) {
	tests := []struct {
		size  int
		delta int32
		want  int
	}{
		{5, 1, 1},
		{5, -1, 4},
		{5, 6, 1},
		{5, -6, 4},
		{5, -15, 0},
		{3, 2147483647, 1},
		{3, -2147483648, 1},
		{1, -9, 0},
	}
	for _, tt := range tests {
		tp := New16(MustSize(tt.size))
		tp.Move(tt.delta)
		if tp.Index() != tt.want {
			t.Errorf("size %d Move(%d) index = %d, want %d", tt.size, tt.delta, tp.Index(), tt.want)
		}
	}
}

func TestMoveSteps_ReturnToOrigin(t *testing.T) {
	const size = 10
	tp := New8(MustSize(size))
	tp.Move(3)
	for i := 0; i < size+1; i++ {
		tp.MoveRight()
	}
	if tp.Index() != 4 {
		t.Errorf("size+1 right moves from 3 ended at %d, want 4", tp.Index())
	}
	for i := 0; i < size; i++ {
		tp.MoveLeft()
	}
	if tp.Index() != 4 {
		t.Errorf("size left moves ended at %d, want 4", tp.Index())
	}
	tp.Move(-4)
	tp.MoveLeft()
	if tp.Index() != size-1 {
		t.Errorf("MoveLeft from 0 = %d, want %d", tp.Index(), size-1)
	}
}

// =============================================================================
// Input and output
// =============================================================================

func TestInput(t *testing.T) {
	tests := []struct {
		name string
		in   rune
		want uint16
	}{
		{"ascii", 'A', 65},
		{"nul", 0, 0},
		{"tilde", '~', 126},
		{"del is sentinel", 127, 0},
		{"latin1", 'é', 0},
		{"wide", '世', 0},
		{"negative", -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := New16(MustSize(1))
			tp.Change(99)
			tp.Input(tt.in)
			if got := tp.Cell(0); got != tt.want {
				t.Errorf("cell = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOutput_NarrowsToByte(t *testing.T) {
	tp := New16(MustSize(1))
	tp.Change(0x141)
	if got := tp.Output(); got != 0x41 {
		t.Errorf("Output() = %#x, want 0x41", got)
	}
}

func TestSnapshot(t *testing.T) {
	tp := New8(MustSize(4))
	tp.Change(1)
	tp.MoveRight()
	tp.Change(2)
	snap := tp.Snapshot(2)
	if len(snap) != 2 || snap[0] != 1 || snap[1] != 2 {
		t.Errorf("Snapshot(2) = %v", snap)
	}
	snap[0] = 9
	if tp.Cell(0) != 1 {
		t.Error("Snapshot must copy")
	}
	if len(tp.Snapshot(0)) != 4 || len(tp.Snapshot(99)) != 4 {
		t.Error("Snapshot should clamp to the tape length")
	}
}
