package backend

import (
	"fmt"

	"github.com/funvibe/tapec/internal/config"
	"github.com/funvibe/tapec/internal/pipeline"
	"github.com/funvibe/tapec/internal/program"
	"github.com/funvibe/tapec/internal/vm"
)

// CompressedBackend runs the compressed dialect: merged runs, 16-bit cells
// and jump targets resolved at build time
type CompressedBackend struct{}

// NewCompressed creates a new compressed backend
func NewCompressed() *CompressedBackend {
	return &CompressedBackend{}
}

func (b *CompressedBackend) Name() string { return config.DialectCompressed }

// Build compresses ctx.Source. A program already present in the context,
// such as one loaded from a bundle, is kept as is.
func (b *CompressedBackend) Build(ctx *pipeline.Context) error {
	if _, ok := ctx.Program.(*program.Compressed); ok {
		return nil
	}
	p, err := program.NewCompressed(ctx.Source)
	if err != nil {
		return err
	}
	if ctx.FilePath != "" {
		p = p.WithName(programName(ctx))
	}
	ctx.Program = p
	return nil
}

func (b *CompressedBackend) Run(ctx *pipeline.Context) (uint64, error) {
	p, err := b.program(ctx)
	if err != nil {
		return 0, err
	}
	machine := vm.NewCompressed(ctx.TapeSize, ctx.Output)
	machine.SetLimit(ctx.MaxInstructions)
	count, err := machine.Execute(p, ctx.Input)
	if ctx.DumpCells > 0 {
		ctx.Cells = ctx.Cells[:0]
		for _, c := range machine.Tape().Snapshot(ctx.DumpCells) {
			ctx.Cells = append(ctx.Cells, c)
		}
	}
	return count, err
}

func (b *CompressedBackend) Listing(ctx *pipeline.Context) (string, error) {
	p, err := b.program(ctx)
	if err != nil {
		return "", err
	}
	name := p.Name()
	if name == "" {
		name = programName(ctx)
	}
	return program.Disassemble(p, name), nil
}

func (b *CompressedBackend) program(ctx *pipeline.Context) (*program.Compressed, error) {
	p, ok := ctx.Program.(*program.Compressed)
	if !ok {
		return nil, fmt.Errorf("compressed backend cannot run %T", ctx.Program)
	}
	return p, nil
}
