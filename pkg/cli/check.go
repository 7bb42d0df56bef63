package cli

import (
	"fmt"
	"os"

	"github.com/funvibe/tapec/internal/analyzer"
	"github.com/funvibe/tapec/internal/pipeline"
	"github.com/funvibe/tapec/internal/tape"
)

// handleCheck handles `tapec check <file>...`: static diagnostics, one per
// line as path:line:col: severity: message. Exits 1 when any file has an
// error; warnings alone exit 0.
func (e *env) handleCheck() bool {
	if len(e.args) < 1 || e.args[0] != "check" {
		return false
	}

	_, positional, err := parseFlags(e.args[1:], flagSpec{})
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	if len(positional) == 0 {
		e.usageError("usage: tapec check <file>...")
		return true
	}

	check := pipeline.New(&analyzer.AnalyzerProcessor{})
	failed := false
	for _, path := range positional {
		data, err := os.ReadFile(path)
		if err != nil {
			e.fail(exitError, "%s", err)
			return true
		}
		ctx := pipeline.NewContext(string(data), tape.MustSize(1))
		ctx.FilePath = path
		ctx = check.Run(ctx)

		for _, d := range append(ctx.Errors, ctx.Warnings...) {
			fmt.Fprintf(e.stdout, "%s:%s\n", path, d)
		}
		failed = failed || ctx.Failed()
	}
	if failed {
		e.code = exitError
	}
	return true
}
