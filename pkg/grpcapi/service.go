// Package grpcapi exposes the interpreter as the nocterm.v1.Console gRPC
// service. Messages are protobuf well-known types, so no generated code
// is needed.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified service name.
const ServiceName = "nocterm.v1.Console"

// Full method names.
const (
	MethodExecute   = "/" + ServiceName + "/Execute"
	MethodComplete  = "/" + ServiceName + "/Complete"
	MethodHelp      = "/" + ServiceName + "/Help"
	MethodInterrupt = "/" + ServiceName + "/Interrupt"
	MethodPrompt    = "/" + ServiceName + "/Prompt"
)

// ConsoleServer is the server API for the Console service.
type ConsoleServer interface {
	// Execute runs one line and returns its output. If the line starts a
	// job, the call returns when the job ends.
	Execute(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Complete returns completion candidates for the last word.
	Complete(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Help returns the "?" candidates for a line given without its "?".
	Help(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// Interrupt is Ctrl-C.
	Interrupt(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	// Prompt returns the active session prompt.
	Prompt(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

func unary[Req proto.Message](name string, newReq func() Req, call func(ConsoleServer, context.Context, Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ConsoleServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ConsoleServer), ctx, req.(Req))
			})
		},
	}
}

// ServiceDesc describes the Console service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConsoleServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Execute", func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) },
			func(s ConsoleServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Execute(ctx, in)
			}),
		unary("Complete", func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) },
			func(s ConsoleServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Complete(ctx, in)
			}),
		unary("Help", func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) },
			func(s ConsoleServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Help(ctx, in)
			}),
		unary("Interrupt", func() *emptypb.Empty { return new(emptypb.Empty) },
			func(s ConsoleServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.Interrupt(ctx, in)
			}),
		unary("Prompt", func() *emptypb.Empty { return new(emptypb.Empty) },
			func(s ConsoleServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.Prompt(ctx, in)
			}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nocterm/v1/console.proto",
}

// RegisterConsoleServer registers srv on s.
func RegisterConsoleServer(s grpc.ServiceRegistrar, srv ConsoleServer) {
	s.RegisterService(&ServiceDesc, srv)
}
