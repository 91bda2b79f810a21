package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"user-api/pkg/logger"
)

// UserServiceName is the service name reported next to the overall ("")
// status, so probes can ask for the user API specifically.
const UserServiceName = "user.UserService"

const pingTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthService publishes the store's reachability over grpc.health.v1.
type HealthService struct {
	server   *health.Server
	db       Pinger
	interval time.Duration
	log      *zap.Logger
}

// NewHealthService creates a health service that reports NOT_SERVING until
// the first successful Refresh.
func NewHealthService(db Pinger, interval time.Duration, log *zap.Logger) *HealthService {
	s := &HealthService{
		server:   health.NewServer(),
		db:       db,
		interval: interval,
		log:      log,
	}
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Register exposes the health service on gs.
func (s *HealthService) Register(gs *grpc.Server) {
	healthpb.RegisterHealthServer(gs, s.server)
}

// Refresh pings the store once and publishes the result.
func (s *HealthService) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(ctx); err != nil {
		logger.WithContext(ctx, s.log).Warn("database ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.set(status)
	return status
}

// Watch refreshes the status every interval until ctx is done.
func (s *HealthService) Watch(ctx context.Context) {
	s.Refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (s *HealthService) Shutdown() {
	s.server.Shutdown()
}

func (s *HealthService) set(status healthpb.HealthCheckResponse_ServingStatus) {
	s.server.SetServingStatus("", status)
	s.server.SetServingStatus(UserServiceName, status)
}
