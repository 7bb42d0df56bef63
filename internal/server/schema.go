package server

import (
	_ "embed"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

//go:embed tapec.proto
var protoSource string

const (
	protoFile   = "tapec/v1/tapec.proto"
	ServiceName = "tapec.v1.Tape"
)

// Schema holds the parsed service descriptors shared by server and client
type Schema struct {
	Service     *desc.ServiceDescriptor
	Execute     *desc.MethodDescriptor
	Disassemble *desc.MethodDescriptor
}

// LoadSchema parses the embedded service definition
func LoadSchema() (*Schema, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{protoFile: protoSource}),
	}
	fds, err := parser.ParseFiles(protoFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}

	sd := fds[0].FindService(ServiceName)
	if sd == nil {
		return nil, fmt.Errorf("service %s not found in %s", ServiceName, protoFile)
	}
	s := &Schema{
		Service:     sd,
		Execute:     sd.FindMethodByName("Execute"),
		Disassemble: sd.FindMethodByName("Disassemble"),
	}
	if s.Execute == nil || s.Disassemble == nil {
		return nil, fmt.Errorf("service %s is missing methods", ServiceName)
	}
	return s, nil
}

// FullMethod returns the "/package.Service/Method" path used by grpc
func FullMethod(md *desc.MethodDescriptor) string {
	return "/" + md.GetService().GetFullyQualifiedName() + "/" + md.GetName()
}
