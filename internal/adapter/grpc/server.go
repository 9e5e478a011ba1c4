package grpc

import (
	"time"

	"github.com/amirrudd/flyerboard/internal/adapter/grpc/middleware"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/amirrudd/flyerboard/internal/platform/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// NewGRPCServer builds the server with tracing, logging, metrics and auth
// interceptors, registers the feed service and health checks, and returns a
// cleanup that stops it gracefully.
func NewGRPCServer(
	appLogger *logger.Logger,
	jwtSecret string,
	m *metrics.MetricsManager,
	srv FeedServiceServer,
) (*grpc.Server, func()) {
	log := appLogger.Named("GRPCServer")

	server := grpc.NewServer(
		middleware.TracingServerOption(),
		grpc.ChainUnaryInterceptor(
			middleware.LoggingInterceptor(log),
			middleware.MetricsInterceptor(m),
			middleware.AuthInterceptor(jwtSecret, log, PublicMethods),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			Time:              2 * time.Minute,
			Timeout:           20 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             30 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	server.RegisterService(&FeedServiceDesc, srv)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	log.Info("gRPC server configured with interceptors: Tracing, Logging, Metrics, Auth")

	cleanup := func() {
		healthSrv.Shutdown()
		log.Info("Calling gRPC server's GracefulStop...")
		server.GracefulStop()
		log.Info("gRPC server GracefulStop completed.")
	}
	return server, cleanup
}
