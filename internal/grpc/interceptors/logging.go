package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"ats-aggregator/internal/logging"
	"ats-aggregator/pkg/utils"
)

// LoggingInterceptor returns a gRPC unary interceptor that logs each call
func LoggingInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(logger, info.FullMethod, start, err)
		return resp, err
	}
}

// StreamLoggingInterceptor returns a gRPC streaming interceptor that logs each stream
func StreamLoggingInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(logger, info.FullMethod, start, err)
		return err
	}
}

func logCall(logger logging.Logger, method string, start time.Time, err error) {
	fields := map[string]interface{}{
		"request_id":  utils.GenerateRequestID(),
		"method":      method,
		"duration_ms": time.Since(start).Milliseconds(),
		"status_code": status.Code(err).String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		logger.Error("gRPC request failed", fields)
		return
	}
	logger.Debug("gRPC request completed", fields)
}
