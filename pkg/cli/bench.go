package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/funvibe/tapec/internal/backend"
	"github.com/funvibe/tapec/internal/config"
	"github.com/funvibe/tapec/internal/history"
	"github.com/funvibe/tapec/internal/pipeline"
	"github.com/funvibe/tapec/internal/program"
)

// benchResult summarizes the runs of one dialect
type benchResult struct {
	dialect      string
	output       []byte
	instructions uint64
	best         time.Duration
	total        time.Duration
	runs         int
}

func (r benchResult) rate() float64 {
	if r.best <= 0 {
		return 0
	}
	return float64(r.instructions) / r.best.Seconds()
}

// handleBench times both dialects on one program, records every run to the
// history store and checks the dialects agree.
func (e *env) handleBench() bool {
	if len(e.args) < 1 || e.args[0] != "bench" {
		return false
	}

	f, positional, err := parseFlags(e.args[1:], runFlags.with(flagSpec{"runs": true}))
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	if len(positional) < 1 {
		e.usageError("usage: tapec bench <file> [input] [--runs n]")
		return true
	}
	runs, err := f.intOr("runs", 3)
	if err == nil && runs <= 0 {
		err = fmt.Errorf("--runs must be positive, got %d", runs)
	}
	if err != nil {
		e.usageError("%s", err)
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
	source := string(data)
	input, ok := e.resolveInput(f, positional[1:], cfg)
	if !ok {
		return true
	}

	var store *history.Store
	if cfg.History != "" {
		if store, err = history.Open(cfg.History); err != nil {
			e.fail(exitError, "%s", err)
			return true
		}
		defer store.Close()
	}

	results := make([]benchResult, 0, 2)
	for _, b := range []backend.Backend{backend.NewBasic(), backend.NewCompressed()} {
		res, err := e.benchDialect(b, source, path, input, cfg, runs, store)
		if err != nil {
			e.fail(exitError, "%s: %s", b.Name(), err)
			return true
		}
		results = append(results, res)
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DIALECT\tRUNS\tINSTRUCTIONS\tBEST\tMEAN\tRATE")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%.0f/s\n",
			r.dialect, r.runs, r.instructions, r.best, r.total/time.Duration(r.runs), r.rate())
	}
	tw.Flush()

	if store != nil {
		e.printBestOnRecord(store, source)
	}

	basic, compressed := results[0], results[1]
	if !bytes.Equal(basic.output, compressed.output) {
		e.fail(exitError, "dialects disagree on output (%d vs %d bytes)", len(basic.output), len(compressed.output))
		return true
	}
	if talliesComparable(source) && basic.instructions != compressed.instructions {
		e.fail(exitError, "dialects disagree on tally: %d vs %d", basic.instructions, compressed.instructions)
		return true
	}
	return true
}

func (e *env) benchDialect(b backend.Backend, source, path, input string, cfg *config.Config, runs int, store *history.Store) (benchResult, error) {
	res := benchResult{dialect: b.Name(), runs: runs}
	build := newContext(source, path, input, cfg)
	if err := b.Build(build); err != nil {
		return res, err
	}

	for i := 0; i < runs; i++ {
		var out bytes.Buffer
		ctx := newContext(source, path, input, cfg)
		ctx.Program = build.Program
		ctx.Output = &out
		ctx = pipeline.New(backend.NewExecutionProcessor(b)).Run(ctx)
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.output = out.Bytes()
		res.instructions = ctx.Instructions
		res.total += ctx.Elapsed
		if i == 0 || ctx.Elapsed < res.best {
			res.best = ctx.Elapsed
		}

		if store != nil {
			_, err := store.Record(context.Background(), history.Run{
				SourceName:   filepath.Base(path),
				SourceSHA256: history.Fingerprint(source),
				Dialect:      b.Name(),
				TapeSize:     cfg.TapeSize,
				Instructions: ctx.Instructions,
				Elapsed:      ctx.Elapsed,
			})
			if err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

func (e *env) printBestOnRecord(store *history.Store, source string) {
	sha := history.Fingerprint(source)
	for _, dialect := range []string{config.DialectBasic, config.DialectCompressed} {
		best, err := store.Best(context.Background(), sha, dialect)
		if errors.Is(err, history.ErrNoRuns) {
			continue
		}
		if err != nil {
			fmt.Fprintf(e.stderr, "Warning: %s\n", err)
			return
		}
		fmt.Fprintf(e.stdout, "best %s on record: %.0f/s (%s)\n",
			dialect, best.Rate(), best.CreatedAt.Format(time.RFC3339))
	}
}

// talliesComparable reports whether both dialects must report the same
// instruction count for source. That holds only without brackets and when
// merging never cancels opposite deltas, since "+-" counts two basic
// instructions but merges to a zero change.
func talliesComparable(source string) bool {
	var unit uint64
	for _, op := range program.NewBasic(source).Ops() {
		switch op {
		case program.OpLoopEnter, program.OpLoopExit:
			return false
		case program.OpIncrement, program.OpDecrement, program.OpMoveLeft, program.OpMoveRight:
			unit++
		}
	}

	p, err := program.NewCompressed(source)
	if err != nil {
		return false
	}
	var merged uint64
	for _, ins := range p.Instructions() {
		if ins.Kind == program.KindChange || ins.Kind == program.KindMove {
			arg := int64(ins.Arg)
			if arg < 0 {
				arg = -arg
			}
			merged += uint64(arg)
		}
	}
	return merged == unit
}

// handleHistory lists recent bench runs from the history store.
func (e *env) handleHistory() bool {
	if len(e.args) < 1 || e.args[0] != "history" {
		return false
	}

	f, positional, err := parseFlags(e.args[1:], flagSpec{"limit": true, "config": true})
	if err != nil || len(positional) > 0 {
		if err == nil {
			err = fmt.Errorf("unexpected argument %q", positional[0])
		}
		e.usageError("%s", err)
		return true
	}
	limit, err := f.intOr("limit", 20)
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	cfg, ok := e.loadConfig(f)
	if !ok {
		return true
	}
	if cfg.History == "" {
		e.fail(exitError, "history is disabled in the configuration")
		return true
	}

	store, err := history.Open(cfg.History)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), limit)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}
	if len(runs) == 0 {
		fmt.Fprintln(e.stdout, "No recorded runs.")
		return true
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tSOURCE\tDIALECT\tINSTRUCTIONS\tELAPSED\tRATE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%.0f/s\n",
			shortID(r.ID), r.CreatedAt.Format("2006-01-02 15:04:05"), r.SourceName, r.Dialect,
			r.Instructions, r.Elapsed, r.Rate())
	}
	tw.Flush()
	return true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
