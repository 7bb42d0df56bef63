// Package program turns tape-language source text into immutable instruction
// streams. Two dialects exist: the basic stream holds one Op per source symbol,
// the compressed stream merges runs of cell and pointer changes into signed
// deltas and carries resolved loop targets.
package program

// Op is a primitive instruction of the basic dialect
type Op byte

const (
	OpIncrement Op = iota // +
	OpDecrement           // -
	OpMoveLeft            // <
	OpMoveRight           // >
	OpInput               // ,
	OpOutput              // .
	OpLoopEnter           // [
	OpLoopExit            // ]
)

var opSymbols = [...]byte{'+', '-', '<', '>', ',', '.', '[', ']'}

var opNames = [...]string{"INC", "DEC", "LEFT", "RIGHT", "IN", "OUT", "ENTER", "EXIT"}

// OpFor maps a source character to its primitive instruction.
// Any other character is a comment.
func OpFor(r rune) (Op, bool) {
	switch r {
	case '+':
		return OpIncrement, true
	case '-':
		return OpDecrement, true
	case '<':
		return OpMoveLeft, true
	case '>':
		return OpMoveRight, true
	case ',':
		return OpInput, true
	case '.':
		return OpOutput, true
	case '[':
		return OpLoopEnter, true
	case ']':
		return OpLoopExit, true
	}
	return 0, false
}

// String returns the source symbol for the op
func (op Op) String() string {
	if int(op) < len(opSymbols) {
		return string(opSymbols[op])
	}
	return "?"
}

// Name returns the mnemonic used by the disassembler
func (op Op) Name() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "UNKNOWN"
}

// Kind identifies a compressed instruction
type Kind byte

const (
	KindChange    Kind = iota // add Arg to the current cell
	KindMove                  // add Arg to the data pointer
	KindInput                 // read one input character
	KindOutput                // write the current cell
	KindLoopEnter             // jump to Arg when the cell is zero
	KindLoopExit              // jump to Arg when the cell is non-zero
)

var kindNames = [...]string{"CHANGE", "MOVE", "IN", "OUT", "ENTER", "EXIT"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// IsBracket reports whether k is a loop bracket
func (k Kind) IsBracket() bool {
	return k == KindLoopEnter || k == KindLoopExit
}

// Instruction is one element of a compressed stream.
// Arg is the signed delta for Change and Move, the partner index for
// LoopEnter and LoopExit, and zero otherwise.
type Instruction struct {
	Kind Kind
	Arg  int32
}

// Change returns a Change instruction with the given delta
func Change(delta int32) Instruction { return Instruction{Kind: KindChange, Arg: delta} }

// Move returns a Move instruction with the given delta
func Move(delta int32) Instruction { return Instruction{Kind: KindMove, Arg: delta} }

// mergeable reports whether next folds into prev during the peephole pass
func mergeable(prev, next Instruction) bool {
	return prev.Kind == next.Kind && (next.Kind == KindChange || next.Kind == KindMove)
}
