package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(&RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         3,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	require.True(t, rl.Allow("client-a"))
	require.True(t, rl.Allow("client-a"))
	require.True(t, rl.Allow("client-a"))
	require.False(t, rl.Allow("client-a"))

	// 其他客户端不受影响
	require.True(t, rl.Allow("client-b"))
}

func TestRateLimiterRefillsTokens(t *testing.T) {
	rl := NewRateLimiter(&RateLimiterConfig{
		RequestsPerSecond: 100,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	require.True(t, rl.Allow("client"))
	require.False(t, rl.Allow("client"))

	time.Sleep(30 * time.Millisecond)
	require.True(t, rl.Allow("client"))
}
