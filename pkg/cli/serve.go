package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/funvibe/tapec/internal/history"
	"github.com/funvibe/tapec/internal/server"
)

// handleServe starts the gRPC execution service and blocks until SIGINT
// or SIGTERM.
func (e *env) handleServe() bool {
	if len(e.args) < 1 || e.args[0] != "serve" {
		return false
	}

	f, positional, err := parseFlags(e.args[1:], flagSpec{
		"addr": true, "config": true, "verbose": false, "dialect": true, "tape": true,
	})
	if err != nil || len(positional) > 0 {
		if err == nil {
			err = fmt.Errorf("unexpected argument %q", positional[0])
		}
		e.usageError("%s", err)
		return true
	}
	cfg, ok := e.loadConfig(f)
	if !ok {
		return true
	}
	if a := f.str("addr"); a != "" {
		cfg.Server.Addr = a
	}

	opts := server.OptionsFromConfig(cfg)
	if cfg.History != "" {
		store, err := history.Open(cfg.History)
		if err != nil {
			e.fail(exitError, "%s", err)
			return true
		}
		defer store.Close()
		opts.History = store
	}

	srv, err := server.New(opts)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}
	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}
	fmt.Fprintf(e.stderr, "tapec %s listening on %s\n", server.ServiceName, lis.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil {
		e.fail(exitError, "%s", err)
	}
	return true
}

// handleRemote runs a program on a tapec service:
// tapec remote <addr> <file> [input]
func (e *env) handleRemote() bool {
	if len(e.args) < 1 || e.args[0] != "remote" {
		return false
	}

	f, positional, err := parseFlags(e.args[1:], runFlags)
	if err != nil {
		e.usageError("%s", err)
		return true
	}
	if len(positional) < 2 {
		e.usageError("usage: tapec remote <addr> <file> [input]")
		return true
	}
	if f.has("dump") {
		e.usageError("--dump is not available for remote runs")
		return true
	}
	cfg, ok := e.loadConfig(f)
	if !ok {
		return true
	}

	addr, path := positional[0], positional[1]
	data, err := os.ReadFile(path)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}
	input, ok := e.resolveInput(f, positional[2:], cfg)
	if !ok {
		return true
	}

	client, err := server.Dial(addr)
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := client.Execute(ctx, server.ExecuteRequest{
		Source:   string(data),
		Input:    input,
		Dialect:  cfg.Dialect,
		TapeSize: int64(cfg.TapeSize),
	})
	if err != nil {
		e.fail(exitError, "%s", err)
		return true
	}

	if _, err := e.stdout.Write(res.Output); err != nil {
		e.fail(exitError, "%s", fmt.Errorf("output: %w", err))
		return true
	}
	if f.bool("stats") {
		fmt.Fprintf(e.stderr, "Executed %d instructions remotely (run %s)\n", res.Instructions, res.RunID)
	}
	return true
}
