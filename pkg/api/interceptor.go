package api

import (
	"context"
	"strings"

	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// classToCode maps a luterr.Class to the gRPC status code pkg/client
// and any other caller should treat it as (spec.md §7).
func classToCode(class luterr.Class) codes.Code {
	switch class {
	case luterr.ClassValidation:
		return codes.InvalidArgument
	case luterr.ClassNotFound:
		return codes.NotFound
	case luterr.ClassConflict:
		return codes.AlreadyExists
	case luterr.ClassTransient:
		return codes.Unavailable
	case luterr.ClassFatal:
		return codes.Internal
	default:
		return codes.Unknown
	}
}

// metricsInterceptor times every unary call and records it under
// lute_api_requests_total/lute_api_request_duration_seconds, translating
// any luterr.Error the handler returns into the matching gRPC status
// before it reaches the wire.
func metricsInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		method := methodName(info.FullMethod)
		timer := metrics.NewTimer()

		resp, err := handler(ctx, req)

		timer.ObserveDurationVec(metrics.APIRequestDuration, method)
		code := codes.OK
		if err != nil {
			// A handler that already built its own *status.Status (e.g. a
			// stubbed-out RPC returning codes.Unimplemented) is passed
			// through untouched rather than reclassified through luterr,
			// whose taxonomy has no Unimplemented class of its own.
			if st, ok := status.FromError(err); ok {
				metrics.APIRequestsTotal.WithLabelValues(method, st.Code().String()).Inc()
				return nil, err
			}
			code = classToCode(luterr.ClassOf(err))
			metrics.APIRequestsTotal.WithLabelValues(method, code.String()).Inc()
			return nil, status.Error(code, err.Error())
		}
		metrics.APIRequestsTotal.WithLabelValues(method, code.String()).Inc()
		return resp, nil
	}
}

func methodName(fullMethod string) string {
	parts := strings.Split(fullMethod, "/")
	return parts[len(parts)-1]
}
