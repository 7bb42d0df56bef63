package program

// Basic is an unoptimized program: one Op per recognized source character.
// It is built once and never mutated.
type Basic struct {
	ops []Op
}

// NewBasic parses source leniently. Unrecognized characters are dropped and
// bracket balance is not checked here.
func NewBasic(source string) *Basic {
	ops := make([]Op, 0, len(source))
	for _, r := range source {
		if op, ok := OpFor(r); ok {
			ops = append(ops, op)
		}
	}
	return &Basic{ops: ops}
}

// Get returns the op at index i, or false past either end
func (p *Basic) Get(i int) (Op, bool) {
	if i < 0 || i >= len(p.ops) {
		return 0, false
	}
	return p.ops[i], true
}

func (p *Basic) Len() int { return len(p.ops) }

func (p *Basic) IsEmpty() bool { return len(p.ops) == 0 }

// Ops returns a copy of the instruction stream
func (p *Basic) Ops() []Op {
	out := make([]Op, len(p.ops))
	copy(out, p.ops)
	return out
}
