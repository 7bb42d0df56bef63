package program

import (
	"fmt"
	"math"
)

// noJump marks a jump table slot that holds no bracket
const noJump int32 = -1

// Compressed is an optimized program. Runs of Change and Move are merged into
// single signed deltas and every bracket carries the index of its partner.
// It is built once, never mutated, and safe to share between interpreters.
type Compressed struct {
	instructions []Instruction

	// jumps is aligned with instructions: the partner index for brackets,
	// noJump everywhere else.
	jumps []int32

	// name is the source name recorded in bundles and disassembly headers
	name string
}

// NewCompressed builds a compressed program in three passes: tokenize,
// merge, then resolve brackets. An unbalanced program is rejected here,
// before anything can execute.
func NewCompressed(source string) (*Compressed, error) {
	stream := Merge(tokenize(source))
	if len(stream) > math.MaxInt32 {
		return nil, fmt.Errorf("program too large: %d instructions", len(stream))
	}

	jumps, err := computeJumps(stream)
	if err != nil {
		return nil, err
	}

	for i := range stream {
		if stream[i].Kind.IsBracket() {
			stream[i].Arg = jumps[i]
		}
	}

	return &Compressed{instructions: stream, jumps: jumps}, nil
}

// tokenize is the first pass: one instruction with magnitude 1 per symbol
func tokenize(source string) []Instruction {
	out := make([]Instruction, 0, len(source))
	for _, r := range source {
		op, ok := OpFor(r)
		if !ok {
			continue
		}
		switch op {
		case OpIncrement:
			out = append(out, Change(1))
		case OpDecrement:
			out = append(out, Change(-1))
		case OpMoveLeft:
			out = append(out, Move(-1))
		case OpMoveRight:
			out = append(out, Move(1))
		case OpInput:
			out = append(out, Instruction{Kind: KindInput})
		case OpOutput:
			out = append(out, Instruction{Kind: KindOutput})
		case OpLoopEnter:
			out = append(out, Instruction{Kind: KindLoopEnter})
		case OpLoopExit:
			out = append(out, Instruction{Kind: KindLoopExit})
		}
	}
	return out
}

// Merge is the peephole pass. It keeps one active instruction; a Change
// following a Change, or a Move following a Move, is folded into it by
// wrapping addition. Every other pair flushes the active instruction.
// Deltas that sum to zero are kept. Merging an already merged stream
// returns an equal stream.
func Merge(in []Instruction) []Instruction {
	out := make([]Instruction, 0, len(in))
	for _, ins := range in {
		if n := len(out); n > 0 && mergeable(out[n-1], ins) {
			out[n-1].Arg += ins.Arg
			continue
		}
		out = append(out, ins)
	}
	return out
}

// computeJumps pairs brackets with an explicit stack in one pass
func computeJumps(stream []Instruction) ([]int32, error) {
	jumps := make([]int32, len(stream))
	var open []int32

	for i, ins := range stream {
		jumps[i] = noJump
		switch ins.Kind {
		case KindLoopEnter:
			open = append(open, int32(i))
		case KindLoopExit:
			if len(open) == 0 {
				return nil, &UnbalancedError{Index: i, Op: OpLoopExit}
			}
			enter := open[len(open)-1]
			open = open[:len(open)-1]
			jumps[enter] = int32(i)
			jumps[i] = enter
		}
	}

	if len(open) > 0 {
		// Report the innermost unclosed bracket
		return nil, &UnbalancedError{Index: int(open[len(open)-1]), Op: OpLoopEnter}
	}
	return jumps, nil
}

// Get returns the instruction at index i, or false past either end
func (p *Compressed) Get(i int) (Instruction, bool) {
	if i < 0 || i >= len(p.instructions) {
		return Instruction{}, false
	}
	return p.instructions[i], true
}

func (p *Compressed) Len() int { return len(p.instructions) }

func (p *Compressed) IsEmpty() bool { return len(p.instructions) == 0 }

// Instructions returns a copy of the instruction stream
func (p *Compressed) Instructions() []Instruction {
	out := make([]Instruction, len(p.instructions))
	copy(out, p.instructions)
	return out
}

// Name returns the source name, empty when none was given
func (p *Compressed) Name() string { return p.name }

// WithName returns a copy of p carrying name. The instruction stream is
// shared, p itself is left untouched.
func (p *Compressed) WithName(name string) *Compressed {
	named := *p
	named.name = name
	return &named
}

// ResolveJump returns the partner index of the bracket at index i
func (p *Compressed) ResolveJump(i int) (int, error) {
	if i < 0 || i >= len(p.jumps) || p.jumps[i] == noJump {
		return 0, fmt.Errorf("%w %d", ErrNotBracket, i)
	}
	return int(p.jumps[i]), nil
}

// fromInstructions rebuilds a program from a stream whose bracket targets are
// already set, verifying every target instead of trusting it.
func fromInstructions(stream []Instruction) (*Compressed, error) {
	jumps, err := computeJumps(stream)
	if err != nil {
		return nil, err
	}
	for i, ins := range stream {
		if ins.Kind > KindLoopExit {
			return nil, fmt.Errorf("unknown instruction kind %d at index %d", ins.Kind, i)
		}
		if ins.Kind.IsBracket() && ins.Arg != jumps[i] {
			return nil, fmt.Errorf("%s at index %d targets %d, matching bracket is %d", ins.Kind, i, ins.Arg, jumps[i])
		}
	}
	return &Compressed{instructions: stream, jumps: jumps}, nil
}
