package api

import (
	"context"

	"google.golang.org/grpc"
)

// unaryFunc is the shape every RPC method body takes: decode already
// done, just the typed request and the Server to act on.
type unaryFunc[Req any] func(ctx context.Context, s *Server, req *Req) (interface{}, error)

// unaryHandler adapts a unaryFunc into the grpc.methodHandler shape
// grpc.MethodDesc expects, so each RPC method can be written as a plain
// typed function instead of hand-rolling the decode/interceptor
// plumbing every codegen'd method would otherwise repeat. Grounded on
// the shape protoc-gen-go-grpc emits, reimplemented here because no
// .proto/.pb.go pair for this service exists in the retrieval pack.
func unaryHandler[Req any](fullMethod string, fn unaryFunc[Req]) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		s := srv.(*Server)
		if interceptor == nil {
			return fn(ctx, s, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(ctx, s, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

// desc builds a grpc.MethodDesc for method methodName of serviceName.
func desc[Req any](serviceName, methodName string, fn unaryFunc[Req]) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: methodName,
		Handler:    unaryHandler("/"+serviceName+"/"+methodName, fn),
	}
}
