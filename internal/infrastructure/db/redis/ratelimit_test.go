package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_KeyWindow(t *testing.T) {
	l := NewRateLimiter(nil, 10)
	base := time.Date(2024, 1, 5, 14, 2, 0, 0, time.UTC)

	k1 := l.key("10.0.0.1", base.Add(5*time.Second))
	k2 := l.key("10.0.0.1", base.Add(59*time.Second))
	k3 := l.key("10.0.0.1", base.Add(61*time.Second))

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, "ratelimit:10.0.0.1:1704463320", k1)
}

func TestRateLimiter_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ok, err := NewRateLimiter(client, 10).Allow(context.Background(), "c")
	require.Error(t, err)
	assert.False(t, ok)
}
