// Package server exposes the interpreters as a gRPC service. The schema is
// parsed at startup and requests are handled with dynamic messages, so no
// generated code is involved.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"github.com/tliron/commonlog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/funvibe/tapec/internal/backend"
	"github.com/funvibe/tapec/internal/config"
	"github.com/funvibe/tapec/internal/history"
	"github.com/funvibe/tapec/internal/logging"
	"github.com/funvibe/tapec/internal/pipeline"
	"github.com/funvibe/tapec/internal/program"
	"github.com/funvibe/tapec/internal/tape"
	"github.com/funvibe/tapec/internal/vm"
)

// Options configures a Server
type Options struct {
	// MaxConcurrent bounds simultaneous executions; zero means unbounded.
	// Requests beyond the limit wait for a slot or for their deadline.
	MaxConcurrent int

	// Defaults used when a request leaves the field empty
	Dialect  string
	TapeSize int

	// Per-request limits; a request reaching either fails with
	// ResourceExhausted and frees its slot. Zero picks the config default.
	MaxInstructions uint64
	MaxOutput       int

	// History, when set, records every successful execution
	History *history.Store
}

// OptionsFromConfig builds server options from a loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxConcurrent:   cfg.Server.MaxConcurrent,
		Dialect:         cfg.Dialect,
		TapeSize:        cfg.TapeSize,
		MaxInstructions: uint64(cfg.Server.MaxInstructions),
		MaxOutput:       cfg.Server.MaxOutput,
	}
}

// Server serves the tapec.v1.Tape service
type Server struct {
	grpc   *grpc.Server
	schema *Schema
	opts   Options
	slots  chan struct{}
	log    commonlog.Logger
}

// New creates a server with the service registered
func New(opts Options) (*Server, error) {
	schema, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	if opts.Dialect == "" {
		opts.Dialect = config.DefaultDialect
	}
	if opts.TapeSize <= 0 {
		opts.TapeSize = config.DefaultTapeSize
	}
	if opts.MaxInstructions == 0 {
		opts.MaxInstructions = config.DefaultMaxInstructions
	}
	if opts.MaxOutput <= 0 {
		opts.MaxOutput = config.DefaultMaxOutput
	}

	s := &Server{
		grpc:   grpc.NewServer(),
		schema: schema,
		opts:   opts,
		log:    logging.Get("server"),
	}
	if opts.MaxConcurrent > 0 {
		s.slots = make(chan struct{}, opts.MaxConcurrent)
	}
	s.grpc.RegisterService(s.serviceDesc(), s)
	return s, nil
}

func (s *Server) serviceDesc() *grpc.ServiceDesc {
	sd := &grpc.ServiceDesc{
		ServiceName: s.schema.Service.GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Methods:     []grpc.MethodDesc{},
		Streams:     []grpc.StreamDesc{},
		Metadata:    s.schema.Service.GetFile().GetName(),
	}

	handlers := map[string]func(context.Context, *dynamic.Message) (*dynamic.Message, error){
		s.schema.Execute.GetName():     s.execute,
		s.schema.Disassemble.GetName(): s.disassemble,
	}
	for _, md := range []*desc.MethodDescriptor{s.schema.Execute, s.schema.Disassemble} {
		handle := handlers[md.GetName()]
		sd.Methods = append(sd.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				inMsg := dynamic.NewMessage(md.GetInputType())
				if err := dec(inMsg); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return handle(ctx, inMsg)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(md)}
				return interceptor(ctx, inMsg, info, func(ctx context.Context, req interface{}) (interface{}, error) {
					return handle(ctx, req.(*dynamic.Message))
				})
			},
		})
	}
	return sd
}

// Serve accepts connections on lis until the server stops
func (s *Server) Serve(lis net.Listener) error {
	s.log.Noticef("serving %s on %s", ServiceName, lis.Addr())
	return s.grpc.Serve(lis)
}

// GracefulStop waits for in-flight requests and stops the server
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

func (s *Server) acquire(ctx context.Context) error {
	if s.slots == nil {
		return nil
	}
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return status.FromContextError(ctx.Err()).Err()
	}
}

func (s *Server) release() {
	if s.slots != nil {
		<-s.slots
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) execute(ctx context.Context, in *dynamic.Message) (*dynamic.Message, error) {
	runID := uuid.New().String()
	log := logging.WithRequest(s.log, runID)

	source := stringField(in, "source")
	b, size, err := s.resolve(stringField(in, "dialect"), int64Field(in, "tape_size"))
	if err != nil {
		log.Warningf("rejected: %s", err)
		return nil, err
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	out := &limitedBuffer{limit: s.opts.MaxOutput}
	pctx := pipeline.NewContext(source, size)
	pctx.Input = stringField(in, "input")
	pctx.Output = out
	pctx.MaxInstructions = s.opts.MaxInstructions
	pctx = backend.Pipeline(b).Run(pctx)

	if err := pctx.Err(); err != nil {
		log.Infof("%s run failed after %d instructions: %s", b.Name(), pctx.Instructions, err)
		return nil, toStatus(err)
	}
	log.Infof("%s run: %d instructions in %s", b.Name(), pctx.Instructions, pctx.Elapsed)

	if s.opts.History != nil {
		_, err := s.opts.History.Record(ctx, history.Run{
			ID:           runID,
			SourceName:   "rpc",
			SourceSHA256: history.Fingerprint(source),
			Dialect:      b.Name(),
			TapeSize:     size.Int(),
			Instructions: pctx.Instructions,
			Elapsed:      pctx.Elapsed,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			log.Errorf("%s", err)
		}
	}

	resp := dynamic.NewMessage(s.schema.Execute.GetOutputType())
	resp.SetFieldByName("output", out.Bytes())
	resp.SetFieldByName("instructions", pctx.Instructions)
	resp.SetFieldByName("run_id", runID)
	return resp, nil
}

func (s *Server) disassemble(ctx context.Context, in *dynamic.Message) (*dynamic.Message, error) {
	b, size, err := s.resolve(stringField(in, "dialect"), 0)
	if err != nil {
		return nil, err
	}
	pctx := pipeline.NewContext(stringField(in, "source"), size)
	if err := b.Build(pctx); err != nil {
		return nil, toStatus(err)
	}
	listing, err := b.Listing(pctx)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := dynamic.NewMessage(s.schema.Disassemble.GetOutputType())
	resp.SetFieldByName("listing", listing)
	return resp, nil
}

// resolve applies defaults to the dialect and tape size of a request
func (s *Server) resolve(dialect string, tapeSize int64) (backend.Backend, tape.Size, error) {
	if dialect == "" {
		dialect = s.opts.Dialect
	}
	b, err := backend.ByName(dialect)
	if err != nil {
		return nil, tape.Size{}, status.Error(codes.InvalidArgument, err.Error())
	}

	n := int64(s.opts.TapeSize)
	if tapeSize != 0 {
		n = tapeSize
	}
	if n > int64(maxTapeSize) {
		return nil, tape.Size{}, status.Errorf(codes.InvalidArgument, "tape_size %d exceeds the limit of %d", n, maxTapeSize)
	}
	size, err := tape.NewSize(int(n))
	if err != nil {
		return nil, tape.Size{}, status.Error(codes.InvalidArgument, err.Error())
	}
	return b, size, nil
}

const maxTapeSize = 1 << 24

// ErrOutputLimit is reported when a request writes more than MaxOutput bytes
var ErrOutputLimit = errors.New("output limit reached")

// limitedBuffer collects request output and refuses writes past limit
type limitedBuffer struct {
	bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.Len()+len(p) > b.limit {
		return 0, fmt.Errorf("%w (%d bytes)", ErrOutputLimit, b.limit)
	}
	return b.Buffer.Write(p)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, program.ErrUnbalanced):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, vm.ErrInstructionLimit), errors.Is(err, ErrOutputLimit):
		return status.Error(codes.ResourceExhausted, err.Error())
	}
	return status.Error(codes.Internal, fmt.Sprintf("execution failed: %s", err))
}

func stringField(msg *dynamic.Message, name string) string {
	v, _ := msg.GetFieldByName(name).(string)
	return v
}

func int64Field(msg *dynamic.Message, name string) int64 {
	v, _ := msg.GetFieldByName(name).(int64)
	return v
}
