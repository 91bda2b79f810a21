package redis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// KEYS[1] bucket hash; ARGV: rate (tokens/s), capacity, now (s), ttl (s).
// Refill and consume happen in one script so concurrent callers never
// observe a half-updated bucket.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
redis.call('EXPIRE', key, ttl)
return allowed
`)

// TokenBucket is a distributed token bucket rate limiter stored in Redis.
// Each key refills at Rate tokens per second up to Burst tokens.
type TokenBucket struct {
	client redis.Scripter
	prefix string
	rate   float64
	burst  int
	ttl    int
	now    func() time.Time
}

// NewTokenBucket creates a limiter that stores buckets under "ratelimit:tb:".
func NewTokenBucket(client redis.Scripter, rate float64, burst int) (*TokenBucket, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("rate must be positive, got %v", rate)
	}
	if burst < 1 {
		return nil, fmt.Errorf("burst must be at least 1, got %d", burst)
	}

	// keep a bucket around for twice the time it needs to refill completely
	ttl := int(math.Ceil(2 * float64(burst) / rate))
	if ttl < 1 {
		ttl = 1
	}

	return &TokenBucket{
		client: client,
		prefix: "ratelimit:tb:",
		rate:   rate,
		burst:  burst,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Allow consumes one token from the bucket identified by key and reports
// whether the caller may proceed.
func (b *TokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(b.now().UnixMicro()) / 1e6

	allowed, err := tokenBucketScript.Run(ctx, b.client, []string{b.prefix + key},
		strconv.FormatFloat(b.rate, 'f', -1, 64),
		b.burst,
		strconv.FormatFloat(now, 'f', 6, 64),
		b.ttl,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("token bucket %q: %w", key, err)
	}

	return allowed == 1, nil
}

// Limit reports the configured refill rate and burst.
func (b *TokenBucket) Limit() (rate float64, burst int) {
	return b.rate, b.burst
}
