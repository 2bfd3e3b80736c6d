package webhooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Limiter gates outbound deliveries per subscriber URL. A false result drops
// the delivery with a rate-limit error; a non-nil error fails open.
type Limiter interface {
	Allow(ctx context.Context, url string) (bool, error)
}

// RateLimiter is an in-process token bucket limiter keyed by subscriber URL.
type RateLimiter struct {
	buckets      map[string]*tokenBucket
	mu           sync.Mutex
	maxTokens    int
	refillPeriod time.Duration
}

type tokenBucket struct {
	tokens       int
	maxTokens    int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewRateLimiter allows bursts of up to maxRequests deliveries per URL,
// refilling one token per period elapsed.
func NewRateLimiter(maxRequests int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:      make(map[string]*tokenBucket),
		maxTokens:    maxRequests,
		refillPeriod: period,
	}
}

// Allow implements Limiter. It never returns an error.
func (rl *RateLimiter) Allow(_ context.Context, url string) (bool, error) {
	rl.mu.Lock()
	bucket, ok := rl.buckets[url]
	if !ok {
		bucket = &tokenBucket{
			tokens:       rl.maxTokens,
			maxTokens:    rl.maxTokens,
			refillPeriod: rl.refillPeriod,
			lastRefill:   time.Now(),
		}
		rl.buckets[url] = bucket
	}
	rl.mu.Unlock()

	return bucket.take(), nil
}

// Reset clears the bucket for a URL.
func (rl *RateLimiter) Reset(url string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, url)
}

func (tb *tokenBucket) take() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	if tb.refillPeriod > 0 && elapsed >= tb.refillPeriod {
		periods := int(elapsed / tb.refillPeriod)
		tb.tokens = min(tb.tokens+periods, tb.maxTokens)
		tb.lastRefill = tb.lastRefill.Add(time.Duration(periods) * tb.refillPeriod)
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// DistributedRateLimiter shares delivery rate limits across instances through
// Redis. A fixed window counter per URL keeps it to one round trip per check.
type DistributedRateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewDistributedRateLimiter allows limit deliveries per URL per window.
func NewDistributedRateLimiter(client *redis.Client, limit int, window time.Duration) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		redis:  client,
		limit:  limit,
		window: window,
		prefix: "hub:deliveries",
	}
}

// Allow implements Limiter. Redis errors are returned so the caller can fail
// open rather than blocking deliveries on a limiter outage.
func (rl *DistributedRateLimiter) Allow(ctx context.Context, url string) (bool, error) {
	key := fmt.Sprintf("%s:%s", rl.prefix, url)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("webhooks: rate limiter redis error: %w", err)
	}

	return incr.Val() <= int64(rl.limit), nil
}

// Remaining returns the remaining deliveries for a URL in the current window.
func (rl *DistributedRateLimiter) Remaining(ctx context.Context, url string) (int, error) {
	key := fmt.Sprintf("%s:%s", rl.prefix, url)

	count, err := rl.redis.Get(ctx, key).Int()
	if err == redis.Nil {
		return rl.limit, nil
	} else if err != nil {
		return 0, err
	}

	remaining := rl.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the window for a URL.
func (rl *DistributedRateLimiter) Reset(ctx context.Context, url string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, url)).Err()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
