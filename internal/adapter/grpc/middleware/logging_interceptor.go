package middleware

import (
	"context"
	"time"

	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs one line per call with the trace and span ids.
func LoggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		sc := trace.SpanFromContext(ctx).SpanContext()

		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("status_code", code.String()),
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		}

		switch {
		case err == nil:
			log.Info("gRPC request completed", fields...)
		case code == codes.Internal || code == codes.Unknown:
			log.Error("gRPC request failed", append(fields, zap.Error(err))...)
		default:
			log.Warn("gRPC request rejected", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}
