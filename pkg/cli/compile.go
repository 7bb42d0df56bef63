package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/funvibe/tapec/internal/backend"
	"github.com/funvibe/tapec/internal/config"
	"github.com/funvibe/tapec/internal/pipeline"
	"github.com/funvibe/tapec/internal/program"
	"github.com/funvibe/tapec/internal/tape"
)

// handleCompile compiles a source file to a compressed bundle (.tpc file).
func (e *env) handleCompile() bool {
	if len(e.args) < 1 || (e.args[0] != "-c" && e.args[0] != "--compile") {
		return false
	}

	f, positional, err := parseFlags(e.args[1:], flagSpec{"o": true, "output": true})
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	if len(positional) != 1 {
		e.usageError("usage: tapec -c <file> [-o out%s]", config.BundleExt)
		return true
	}
	sourcePath := positional[0]

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}

	p, err := program.NewCompressed(string(data))
	if err != nil {
		e.fail(exitError, "compilation: %s", err)
		return true
	}
	p = p.WithName(filepath.Base(sourcePath))

	bundle, err := p.Serialize()
	if err != nil {
		e.fail(exitError, "serialization: %s", err)
		return true
	}

	// Determine output path
	outputPath := f.str("o")
	if outputPath == "" {
		outputPath = f.str("output")
	}
	if outputPath == "" {
		outputPath = config.TrimSourceExt(sourcePath) + config.BundleExt
	}

	if err := os.WriteFile(outputPath, bundle, 0644); err != nil {
		e.fail(exitError, "writing bundle: %s", err)
		return true
	}

	fmt.Fprintf(e.stdout, "Compiled %s -> %s (%d instructions, %d bytes)\n",
		sourcePath, outputPath, p.Len(), len(bundle))
	return true
}

// handleRunCompiled runs a pre-compiled .tpc bundle with the compressed
// interpreter.
func (e *env) handleRunCompiled() bool {
	if len(e.args) < 1 || (e.args[0] != "-r" && e.args[0] != "--run") {
		return false
	}

	f, positional, err := parseFlags(e.args[1:], runFlags)
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	if len(positional) < 1 {
		e.usageError("usage: tapec -r <file%s> [input]", config.BundleExt)
		return true
	}
	if f.has("dialect") && f.str("dialect") != config.DialectCompressed {
		e.usageError("bundles only run with the %s dialect", config.DialectCompressed)
		return true
	}
	cfg, ok := e.loadConfig(f)
	if !ok {
		return true
	}

	bundlePath := positional[0]
	data, err := os.ReadFile(bundlePath)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}
	p, err := program.Deserialize(data)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}

	input, ok := e.resolveInput(f, positional[1:], cfg)
	if !ok {
		return true
	}
	ctx := newContext("", bundlePath, input, cfg)
	ctx.Program = p
	e.execute(backend.NewCompressed(), ctx, f)
	return true
}

// handleDisasm prints the instruction listing of a source file or bundle.
func (e *env) handleDisasm() bool {
	if len(e.args) < 1 || e.args[0] != "disasm" {
		return false
	}

	f, positional, err := parseFlags(e.args[1:], flagSpec{"dialect": true, "config": true})
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	if len(positional) != 1 {
		e.usageError("usage: tapec disasm [--dialect d] <file>")
		return true
	}
	cfg, ok := e.loadConfig(f)
	if !ok {
		return true
	}

	path := positional[0]
	data, err := os.ReadFile(path)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}

	ctx := pipeline.NewContext(string(data), tape.MustSize(cfg.TapeSize))
	ctx.FilePath = path
	b, err := backend.ByName(cfg.Dialect)
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	if program.IsBundle(data) {
		if ctx.Program, err = program.Deserialize(data); err != nil {
			e.fail(exitError, "%s", err)
			return true
		}
		b = backend.NewCompressed()
	}

	if err := b.Build(ctx); err != nil {
		e.fail(exitError, "%s", err)
		return true
	}
	listing, err := b.Listing(ctx)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}
	fmt.Fprint(e.stdout, listing)
	return true
}
