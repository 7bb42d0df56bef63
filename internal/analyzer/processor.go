package analyzer

import "github.com/funvibe/tapec/internal/pipeline"

// AnalyzerProcessor implements pipeline.Processor. Errors land in
// ctx.Errors, warnings in ctx.Warnings.
type AnalyzerProcessor struct{}

func (ap *AnalyzerProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	for _, d := range Analyze(ctx.Source) {
		if d.Severity == SeverityError {
			ctx.Errors = append(ctx.Errors, d)
		} else {
			ctx.Warnings = append(ctx.Warnings, d)
		}
	}
	return ctx
}
