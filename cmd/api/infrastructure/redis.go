package infrastructure

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"user-api/internal/config"
	redisclient "user-api/pkg/redis"
)

// NewRedisClient creates a Redis client from configuration
func NewRedisClient(ctx context.Context, cfg *config.Config, l *zap.Logger) (*redisclient.Client, error) {
	redisConfig := redisclient.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		MinIdleConn: cfg.Redis.MinIdleConn,
	}

	rdb, err := redisclient.NewClient(ctx, redisConfig, l)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

// NewRateLimiter builds the Redis token bucket used by the HTTP rate limiter.
func NewRateLimiter(rdb *redisclient.Client, cfg *config.Config) (*redisclient.TokenBucket, error) {
	bucket, err := redisclient.NewTokenBucket(rdb.Client, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit: %w", err)
	}
	return bucket, nil
}
