package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"

	grpcadapter "user-api/internal/adapter/grpc"
	"user-api/pkg/logger"
)

// SetupGRPC creates the gRPC server that carries the health service
func SetupGRPC(health *grpcadapter.HealthService, l *zap.Logger) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			logger.UnaryLoggingInterceptor(l),
		),
	)
	health.Register(grpcServer)

	return grpcServer
}
