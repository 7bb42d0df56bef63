package backend

import (
	"fmt"

	"github.com/funvibe/tapec/internal/config"
	"github.com/funvibe/tapec/internal/pipeline"
	"github.com/funvibe/tapec/internal/program"
	"github.com/funvibe/tapec/internal/vm"
)

// BasicBackend runs the basic dialect: 8-bit cells, live bracket scans
type BasicBackend struct{}

// NewBasic creates a new basic backend
func NewBasic() *BasicBackend {
	return &BasicBackend{}
}

func (b *BasicBackend) Name() string { return config.DialectBasic }

// Build never fails; bracket problems surface only if a scan runs off the
// stream during Run.
func (b *BasicBackend) Build(ctx *pipeline.Context) error {
	ctx.Program = program.NewBasic(ctx.Source)
	return nil
}

func (b *BasicBackend) Run(ctx *pipeline.Context) (uint64, error) {
	p, err := b.program(ctx)
	if err != nil {
		return 0, err
	}
	machine := vm.NewBasic(ctx.TapeSize, ctx.Output)
	machine.SetLimit(ctx.MaxInstructions)
	count, err := machine.Execute(p, ctx.Input)
	if ctx.DumpCells > 0 {
		ctx.Cells = ctx.Cells[:0]
		for _, c := range machine.Tape().Snapshot(ctx.DumpCells) {
			ctx.Cells = append(ctx.Cells, uint16(c))
		}
	}
	return count, err
}

func (b *BasicBackend) Listing(ctx *pipeline.Context) (string, error) {
	p, err := b.program(ctx)
	if err != nil {
		return "", err
	}
	return program.DisassembleBasic(p, programName(ctx)), nil
}

func (b *BasicBackend) program(ctx *pipeline.Context) (*program.Basic, error) {
	p, ok := ctx.Program.(*program.Basic)
	if !ok {
		return nil, fmt.Errorf("basic backend cannot run %T", ctx.Program)
	}
	return p, nil
}
