package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), Config{Host: mr.Host(), Port: mr.Port()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.PingContext(context.Background()))

	mr.Close()
	assert.Error(t, client.PingContext(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := Config{Host: mr.Host(), Port: mr.Port()}
	mr.Close()

	_, err := NewClient(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewTokenBucket_InvalidLimits(t *testing.T) {
	client, _ := setupTestRedis(t)

	_, err := NewTokenBucket(client, 0, 10)
	assert.Error(t, err)

	_, err = NewTokenBucket(client, 10, 0)
	assert.Error(t, err)
}

func TestTokenBucket_BurstThenDeny(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	bucket, err := NewTokenBucket(client, 1, 3)
	require.NoError(t, err)
	frozen := time.Unix(1_700_000_000, 0)
	bucket.now = func() time.Time { return frozen }

	for i := 0; i < 3; i++ {
		allowed, err := bucket.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, err := bucket.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// other keys have their own bucket
	allowed, err = bucket.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestTokenBucket_Refill(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	bucket, err := NewTokenBucket(client, 2, 1)
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)
	bucket.now = func() time.Time { return now }

	allowed, err := bucket.Allow(ctx, "client")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = bucket.Allow(ctx, "client")
	require.NoError(t, err)
	require.False(t, allowed)

	// two tokens per second: one is back after half a second
	now = now.Add(500 * time.Millisecond)
	allowed, err = bucket.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestTokenBucket_SetsExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)

	bucket, err := NewTokenBucket(client, 10, 20)
	require.NoError(t, err)

	_, err = bucket.Allow(context.Background(), "client")
	require.NoError(t, err)

	assert.True(t, mr.Exists("ratelimit:tb:client"))
	assert.Equal(t, 4*time.Second, mr.TTL("ratelimit:tb:client"))
}

func TestTokenBucket_Concurrent(t *testing.T) {
	client, _ := setupTestRedis(t)

	bucket, err := NewTokenBucket(client, 0.001, 5)
	require.NoError(t, err)
	frozen := time.Unix(1_700_000_000, 0)
	bucket.now = func() time.Time { return frozen }

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := bucket.Allow(context.Background(), "shared")
			assert.NoError(t, err)
			if allowed {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, granted)
}

func TestTokenBucket_RedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)

	bucket, err := NewTokenBucket(client, 1, 1)
	require.NoError(t, err)
	mr.Close()

	_, err = bucket.Allow(context.Background(), "client")
	assert.Error(t, err)
}
