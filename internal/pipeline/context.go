package pipeline

import (
	"io"
	"time"

	"github.com/funvibe/tapec/internal/tape"
)

// Context carries a program from source text to its execution report.
type Context struct {
	Source   string
	FilePath string
	Input    string
	TapeSize tape.Size
	Output   io.Writer

	// Program holds the built program; its concrete type depends on the
	// backend that built it.
	Program any

	Instructions uint64
	Elapsed      time.Duration

	// MaxInstructions stops the run once the tally reaches it; zero means
	// no limit.
	MaxInstructions uint64

	// DumpCells asks the executing backend to copy that many leading tape
	// cells into Cells once the run ends, faulted or not.
	DumpCells int
	Cells     []uint16

	Errors   []error
	Warnings []error
}

// NewContext creates a context for source with default output discarded
func NewContext(source string, size tape.Size) *Context {
	return &Context{
		Source:   source,
		TapeSize: size,
		Output:   io.Discard,
	}
}

// Failed reports whether any stage recorded an error
func (c *Context) Failed() bool {
	return len(c.Errors) > 0
}

// Err returns the first recorded error, or nil
func (c *Context) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return c.Errors[0]
}

// Rate is executed instructions per second
func (c *Context) Rate() float64 {
	if c.Elapsed <= 0 {
		return 0
	}
	return float64(c.Instructions) / c.Elapsed.Seconds()
}
