package server

import (
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"ats-aggregator/internal/grpc/interceptors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/sources"
)

// Server serves grpc.health.v1 with one service name per source
type Server struct {
	registry *sources.Registry
	logger   logging.Logger

	grpcServer *grpc.Server
	health     *health.Server
}

func NewServer(registry *sources.Registry, logger logging.Logger) *Server {
	logger = logger.WithField("component", "grpc")

	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(logger),
			interceptors.LoggingInterceptor(logger),
			interceptors.MetricsInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(logger),
			interceptors.StreamLoggingInterceptor(logger),
			interceptors.StreamMetricsInterceptor(),
		),
	)

	s := &Server{
		registry:   registry,
		logger:     logger,
		grpcServer: grpcServer,
		health:     health.NewServer(),
	}
	healthpb.RegisterHealthServer(grpcServer, s.health)

	// Enable reflection for debugging
	reflection.Register(grpcServer)

	s.RefreshHealth()
	return s
}

func (s *Server) Start(lis net.Listener) error {
	s.logger.Info("starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpcServer.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls
func (s *Server) Stop() {
	s.logger.Info("shutting down gRPC server")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
