package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/tapec/internal/backend"
	"github.com/funvibe/tapec/internal/config"
	"github.com/funvibe/tapec/internal/logging"
	"github.com/funvibe/tapec/internal/pipeline"
	"github.com/funvibe/tapec/internal/program"
	"github.com/funvibe/tapec/internal/tape"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// env is one invocation: its arguments, its streams and the exit code the
// handlers settle on.
type env struct {
	args   []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	code   int
}

// Run is the process entry point.
func Run() {
	os.Exit(Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Main dispatches args (without the program name) and returns the exit code.
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	e := &env{args: args, stdin: stdin, stdout: stdout, stderr: stderr}

	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(stderr, "Internal error: %v\n", r)
			fmt.Fprintln(stderr, "This is a bug. Please report it.")
			code = exitError
		}
	}()

	// Handle version flag
	if len(args) == 1 {
		switch args[0] {
		case "-v", "-version", "--version", "version":
			fmt.Fprintln(stdout, "tapec "+config.Version)
			return exitOK
		}
	}

	handlers := []func() bool{
		e.handleHelp,
		e.handleCompile,
		e.handleRunCompiled,
		e.handleEval,
		e.handleDisasm,
		e.handleDebug,
		e.handleFormat,
		e.handleCheck,
		e.handleBench,
		e.handleHistory,
		e.handleServe,
		e.handleRemote,
	}
	for _, handle := range handlers {
		if handle() {
			return e.code
		}
	}

	e.runFile()
	return e.code
}

// fail prints an error in the standard format and sets the exit code
func (e *env) fail(code int, format string, args ...any) {
	fmt.Fprintf(e.stderr, "Error: "+format+"\n", args...)
	e.code = code
}

func (e *env) usageError(format string, args ...any) {
	e.fail(exitUsage, format, args...)
	fmt.Fprintln(e.stderr, "Run 'tapec help' for usage.")
}

// =============================================================================
// Shared run plumbing
// =============================================================================

// runFlags are accepted by every command that executes a program
var runFlags = flagSpec{
	"dialect": true,
	"tape":    true,
	"input":   true,
	"config":  true,
	"dump":    true,
	"stats":   false,
	"verbose": false,
}

// loadConfig resolves tapec.yaml and applies command line overrides
func (e *env) loadConfig(f flags) (*config.Config, bool) {
	dir, _ := os.Getwd()
	cfg, err := config.Resolve(f.str("config"), dir)
	if err != nil {
		e.fail(exitError, "%s", err)
		return nil, false
	}
	if d := f.str("dialect"); d != "" {
		cfg.Dialect = d
	}
	if f.has("tape") {
		n, err := f.integer("tape")
		if err != nil {
			e.usageError("%s", err)
			return nil, false
		}
		cfg.TapeSize = n
	}
	if err := cfg.Validate(); err != nil {
		e.usageError("%s", err)
		return nil, false
	}

	verbosity := cfg.Log.Verbosity
	if f.bool("verbose") {
		verbosity += 2
	}
	logging.Configure(verbosity, cfg.Log.File)
	return cfg, true
}

// resolveInput picks the input payload: a positional argument, then
// --input ("-" reads stdin), then the config default.
func (e *env) resolveInput(f flags, positional []string, cfg *config.Config) (string, bool) {
	if len(positional) > 0 {
		return positional[0], true
	}
	if !f.has("input") {
		return cfg.Input, true
	}
	in := f.str("input")
	if in != "-" {
		return in, true
	}
	data, err := io.ReadAll(e.stdin)
	if err != nil {
		e.fail(exitError, "reading input: %s", err)
		return "", false
	}
	return string(data), true
}

// execute runs ctx through b, streaming output to stdout, and reports
func (e *env) execute(b backend.Backend, ctx *pipeline.Context, f flags) {
	out, flush := e.programOutput()
	ctx.Output = out
	if f.has("dump") {
		n, err := f.integer("dump")
		if err == nil && n <= 0 {
			err = fmt.Errorf("--dump must be positive, got %d", n)
		}
		if err != nil {
			e.usageError("%s", err)
			return
		}
		ctx.DumpCells = n
	}

	ctx = backend.Pipeline(b).Run(ctx)
	if err := flush(); err != nil && !ctx.Failed() {
		ctx.Errors = append(ctx.Errors, fmt.Errorf("output: %w", err))
	}

	if f.bool("stats") {
		e.printStats(ctx)
	}
	if ctx.DumpCells > 0 && ctx.Cells != nil {
		fmt.Fprintf(e.stderr, "tape[0:%d] %v\n", len(ctx.Cells), ctx.Cells)
	}
	if err := ctx.Err(); err != nil {
		e.fail(exitError, "%s", err)
	}
}

func (e *env) printStats(ctx *pipeline.Context) {
	if isTerminal(e.stdout) {
		fmt.Fprintln(e.stderr)
	}
	fmt.Fprintf(e.stderr, "Executed %d instructions in %.6fs (%.0f per sec)\n",
		ctx.Instructions, ctx.Elapsed.Seconds(), ctx.Rate())
}

// programOutput returns the writer Output instructions go to. Terminals get
// every byte immediately; pipes and files are buffered until flush.
func (e *env) programOutput() (io.Writer, func() error) {
	if isTerminal(e.stdout) {
		return e.stdout, func() error { return nil }
	}
	bw := bufio.NewWriter(e.stdout)
	return bw, bw.Flush
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newContext builds a pipeline context for source from the resolved config
func newContext(source, path, input string, cfg *config.Config) *pipeline.Context {
	ctx := pipeline.NewContext(source, tape.MustSize(cfg.TapeSize))
	ctx.FilePath = path
	ctx.Input = input
	return ctx
}

// =============================================================================
// Default command: run a file
// =============================================================================

// runFile handles `tapec <file> [input]`, and `tapec` with source piped on stdin
func (e *env) runFile() {
	f, positional, err := parseFlags(e.args, runFlags)
	if err != nil {
		e.usageError("%s", err)
		return
	}
	cfg, ok := e.loadConfig(f)
	if !ok {
		return
	}

	var (
		data []byte
		path string
	)
	if len(positional) == 0 {
		if e.stdin == nil || isTerminal(e.stdin) {
			fmt.Fprint(e.stderr, usage)
			e.code = exitUsage
			return
		}
		if data, err = io.ReadAll(e.stdin); err != nil {
			e.fail(exitError, "reading source: %s", err)
			return
		}
	} else {
		path = positional[0]
		positional = positional[1:]
		if data, err = os.ReadFile(path); err != nil {
			e.fail(exitError, "%s", err)
			return
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	input, ok := e.resolveInput(f, positional, cfg)
	if !ok {
		return
	}

	ctx := newContext(string(data), path, input, cfg)
	b, err := backend.ByName(cfg.Dialect)
	if err != nil {
		e.usageError("%s", err)
		return
	}
	if program.IsBundle(data) {
		p, err := program.Deserialize(data)
		if err != nil {
			e.fail(exitError, "%s", err)
			return
		}
		ctx.Program = p
		b = backend.NewCompressed()
	}
	e.execute(b, ctx, f)
}

// handleEval handles `tapec -e '<source>' [input]`
func (e *env) handleEval() bool {
	if len(e.args) < 1 || e.args[0] != "-e" {
		return false
	}
	if len(e.args) < 2 {
		e.usageError("-e requires program source")
		return true
	}

	f, positional, err := parseFlags(e.args[2:], runFlags)
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	cfg, ok := e.loadConfig(f)
	if !ok {
		return true
	}
	input, ok := e.resolveInput(f, positional, cfg)
	if !ok {
		return true
	}
	b, err := backend.ByName(cfg.Dialect)
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	e.execute(b, newContext(e.args[1], "", input, cfg), f)
	return true
}

// =============================================================================
// Help
// =============================================================================

const usage = `Usage:
  tapec <file> [input]                 run a program (source or .tpc bundle)
  tapec -e '<source>' [input]          run inline source
  tapec -c|--compile <file> [-o out]   compile to a compressed bundle
  tapec -r|--run <file.tpc> [input]    run a compressed bundle
  tapec disasm <file>                  print the instruction listing
  tapec debug <file> [input]           step through a program interactively
  tapec fmt [-w] <file>...             print or rewrite source in canonical layout
  tapec check <file>...                report structural errors and dead code
  tapec bench <file> [--runs n]        time both dialects and record history
  tapec history [--limit n]            list recorded bench runs
  tapec serve [--addr host:port]       start the gRPC execution service
  tapec remote <addr> <file> [input]   run a program on a tapec service
  tapec help | version

Run flags:
  --dialect basic|compressed   interpreter to use (default from tapec.yaml)
  --tape N                     number of tape cells
  --input S                    input payload; "-" reads stdin
  --config PATH                configuration file (default ./tapec.yaml or $TAPEC_CONFIG)
  --stats                      report executed instructions and throughput
  --dump N                     print the first N tape cells after the run
  --verbose                    raise log verbosity
`

func (e *env) handleHelp() bool {
	if len(e.args) < 1 {
		return false
	}
	switch e.args[0] {
	case "help", "-h", "-help", "--help":
	default:
		return false
	}
	fmt.Fprint(e.stdout, usage)
	return true
}
