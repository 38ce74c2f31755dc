package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterPerKey(t *testing.T) {
	l := NewMemoryLimiter(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, retryAfter, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))

	ok, _, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiterCleanup(t *testing.T) {
	l := NewMemoryLimiter(1)
	_, _, _ = l.Allow(context.Background(), "a")

	l.Cleanup(time.Hour)
	assert.Len(t, l.visitors, 1)

	l.Cleanup(-time.Second)
	assert.Empty(t, l.visitors)
}

func TestWindowKey(t *testing.T) {
	start := time.Unix(1_760_000_040, 0).Truncate(time.Minute)
	assert.Equal(t, "ratelimit:offers:user:u1:1760000040", windowKey("offers:user:u1", start))
}
