package vm

import "unicode/utf8"

// inputBuffer is the per-execution input payload, drained front to back
type inputBuffer struct {
	data string
}

// next removes and returns the first character. An exhausted buffer yields
// NUL. Invalid UTF-8 bytes decode to utf8.RuneError, which the tape stores
// as 0 like any other character outside the ASCII range.
func (b *inputBuffer) next() rune {
	if b.data == "" {
		return 0
	}
	r, size := utf8.DecodeRuneInString(b.data)
	b.data = b.data[size:]
	return r
}
