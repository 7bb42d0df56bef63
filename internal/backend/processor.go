package backend

import (
	"time"

	"github.com/funvibe/tapec/internal/pipeline"
)

// BuildProcessor implements pipeline.Processor to build a program
type BuildProcessor struct {
	Backend Backend
}

// NewBuildProcessor creates a new pipeline stage for the given backend
func NewBuildProcessor(b Backend) *BuildProcessor {
	return &BuildProcessor{Backend: b}
}

func (p *BuildProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	if err := p.Backend.Build(ctx); err != nil {
		ctx.Errors = append(ctx.Errors, err)
	}
	return ctx
}

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline stage for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	// If previous steps failed, don't run execution
	if ctx.Program == nil || ctx.Failed() {
		return ctx
	}

	start := time.Now()
	count, err := p.Backend.Run(ctx)
	ctx.Elapsed = time.Since(start)
	// A faulted run still reports the work it did before stopping
	ctx.Instructions = count
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
	}
	return ctx
}

// Pipeline returns the standard build then execute pipeline for b
func Pipeline(b Backend) *pipeline.Pipeline {
	return pipeline.New(NewBuildProcessor(b), NewExecutionProcessor(b))
}
