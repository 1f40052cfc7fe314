package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitIPPrefix is the key prefix for per-IP buckets.
const rateLimitIPPrefix = keyPrefix + "ratelimit:ip:"

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and takes one token atomically. Time is in
// milliseconds; the bucket expires once it would be full again.
//
// Returns {allowed, retry_after_ms, remaining_tokens}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local data = redis.call('HMGET', key, 'tokens', 'ts')
	local tokens = tonumber(data[1]) or burst
	local ts = tonumber(data[2]) or now

	local elapsed = math.max(0, now - ts)
	tokens = math.min(burst, tokens + elapsed * rate / 1000)

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) * 1000 / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'ts', now)
	redis.call('PEXPIRE', key, math.ceil(burst * 1000 / rate) + 1000)

	return {allowed, retry_after, math.floor(tokens)}
`)

// CheckIPRateLimit takes a token from the bucket of ip. The IP is hashed so
// raw addresses are never stored.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	if ratePerSecond <= 0 || burst <= 0 {
		return nil, fmt.Errorf("invalid rate limit: rate %d, burst %d", ratePerSecond, burst)
	}

	now := time.Now()
	res, err := tokenBucketScript.Run(ctx, c.client,
		[]string{rateLimitKey(ip)},
		ratePerSecond, burst, now.UnixMilli(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit script returned %d values", len(res))
	}

	return newResult(now, ratePerSecond, burst, res[0] == 1, res[1], res[2]), nil
}

func newResult(now time.Time, ratePerSecond, burst int, allowed bool, retryAfterMs, remaining int64) *RateLimitResult {
	missing := int64(burst) - remaining
	refill := time.Duration(missing) * time.Second / time.Duration(ratePerSecond)

	return &RateLimitResult{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  remaining,
		ResetAt:    now.Add(refill),
		RetryAfter: time.Duration(retryAfterMs) * time.Millisecond,
	}
}

func rateLimitKey(ip string) string {
	return rateLimitIPPrefix + hashIP(ip)
}

// hashIP creates a truncated SHA256 hash of an IP address.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
