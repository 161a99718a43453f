package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateWindow = time.Minute

// RateLimiter enforces a fixed per-minute request budget for each client.
// Key format: ratelimit:<client>:<window_start_unix>
type RateLimiter struct {
	client *redis.Client
	limit  int64
	now    func() time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit requests per minute.
func NewRateLimiter(client *redis.Client, limit int) *RateLimiter {
	return &RateLimiter{client: client, limit: int64(limit), now: time.Now}
}

// Allow counts one request for clientID and reports whether it fits in the
// current window.
func (l *RateLimiter) Allow(ctx context.Context, clientID string) (bool, error) {
	key := l.key(clientID, l.now())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, 2*rateWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return incr.Val() <= l.limit, nil
}

func (l *RateLimiter) key(clientID string, at time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", clientID, at.Truncate(rateWindow).Unix())
}
