package server

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ExecuteRequest mirrors tapec.v1.ExecuteRequest
type ExecuteRequest struct {
	Source   string
	Input    string
	Dialect  string
	TapeSize int64
}

// ExecuteResult mirrors tapec.v1.ExecuteResponse
type ExecuteResult struct {
	Output       []byte
	Instructions uint64
	RunID        string
}

// Client calls a remote tapec service
type Client struct {
	conn   *grpc.ClientConn
	schema *Schema
}

// Dial connects to the service at addr without transport security
func Dial(addr string) (*Client, error) {
	schema, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return &Client{conn: conn, schema: schema}, nil
}

// Close closes the underlying connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Execute runs a program remotely
func (c *Client) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	md := c.schema.Execute
	reqMsg := dynamic.NewMessage(md.GetInputType())
	reqMsg.SetFieldByName("source", req.Source)
	reqMsg.SetFieldByName("input", req.Input)
	reqMsg.SetFieldByName("dialect", req.Dialect)
	reqMsg.SetFieldByName("tape_size", req.TapeSize)

	respMsg := dynamic.NewMessage(md.GetOutputType())
	if err := c.conn.Invoke(ctx, FullMethod(md), reqMsg, respMsg); err != nil {
		return nil, err
	}

	res := &ExecuteResult{RunID: stringField(respMsg, "run_id")}
	res.Output, _ = respMsg.GetFieldByName("output").([]byte)
	res.Instructions, _ = respMsg.GetFieldByName("instructions").(uint64)
	return res, nil
}

// Disassemble returns the remote listing of source under dialect
func (c *Client) Disassemble(ctx context.Context, source, dialect string) (string, error) {
	md := c.schema.Disassemble
	reqMsg := dynamic.NewMessage(md.GetInputType())
	reqMsg.SetFieldByName("source", source)
	reqMsg.SetFieldByName("dialect", dialect)

	respMsg := dynamic.NewMessage(md.GetOutputType())
	if err := c.conn.Invoke(ctx, FullMethod(md), reqMsg, respMsg); err != nil {
		return "", err
	}
	return stringField(respMsg, "listing"), nil
}
