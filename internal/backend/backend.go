// Package backend provides an interface for the two execution dialects.
// This allows switching between the basic interpreter, which scans for
// brackets at run time, and the compressed interpreter with its
// precomputed jump table.
package backend

import (
	"fmt"
	"path/filepath"

	"github.com/funvibe/tapec/internal/config"
	"github.com/funvibe/tapec/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Name returns the dialect name for display
	Name() string

	// Build turns ctx.Source into a program stored in ctx.Program
	Build(ctx *pipeline.Context) error

	// Run executes ctx.Program and returns the instruction tally
	Run(ctx *pipeline.Context) (uint64, error)

	// Listing disassembles ctx.Program
	Listing(ctx *pipeline.Context) (string, error)
}

// ByName returns the backend for a dialect name
func ByName(name string) (Backend, error) {
	switch name {
	case config.DialectBasic:
		return NewBasic(), nil
	case config.DialectCompressed:
		return NewCompressed(), nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
}

// Default returns the backend named by config.DefaultDialect
func Default() Backend {
	b, err := ByName(config.DefaultDialect)
	if err != nil {
		return NewCompressed()
	}
	return b
}

func programName(ctx *pipeline.Context) string {
	if ctx.FilePath == "" {
		return "<inline>"
	}
	return filepath.Base(ctx.FilePath)
}
