package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"user-api/cmd/api/di"
	"user-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env: "test",
		DB:  config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"},
		App: config.AppConfig{
			GRPCPort:                   "0",
			HTTPPort:                   "0",
			ShutdownTimeoutSeconds:     5,
			HealthCheckIntervalSeconds: 1,
		},
		Logger: config.LoggerConfig{Level: "warn"},
	}
}

func listen(t *testing.T) net.Listener {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return lis
}

func TestServer_ServeAndShutdown(t *testing.T) {
	cfg := testConfig()
	log := zaptest.NewLogger(t)

	container, err := di.NewContainer(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })
	assert.Nil(t, container.RateLimiter)

	srv := New(cfg, log, container)
	grpcLis, httpLis := listen(t), listen(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, grpcLis, httpLis) }()

	baseURL := "http://" + httpLis.Addr().String()

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(baseURL+"/api/users", "application/json",
		strings.NewReader(`{"firstName":"John","lastName":"Doe","email":"john.doe@example.com"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	assert.Eventually(t, func() bool {
		r, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		return err == nil && r.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = http.Get(baseURL + "/health")
	assert.Error(t, err)
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.DB.Driver = "oracle"

	_, err := di.NewContainer(context.Background(), cfg, zaptest.NewLogger(t))

	assert.ErrorContains(t, err, "DB_DRIVER")
}
