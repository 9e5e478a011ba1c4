package middleware

import (
	"context"
	"path"
	"time"

	"github.com/amirrudd/flyerboard/internal/platform/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// MetricsInterceptor records latency per method and errors per method and status code.
func MetricsInterceptor(m *metrics.MetricsManager) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if m == nil {
			return handler(ctx, req)
		}
		method := path.Base(info.FullMethod)
		start := time.Now()
		resp, err := handler(ctx, req)
		m.APILatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
		if err != nil {
			m.APIErrorsTotal.WithLabelValues(method, status.Code(err).String()).Inc()
		}
		return resp, err
	}
}
