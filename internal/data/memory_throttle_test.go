package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryThrottle_AllowsWithinLimit(t *testing.T) {
	throttle := NewMemoryThrottle(MemoryThrottleOptions{Limit: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := throttle.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, err := throttle.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryThrottle_KeysAreIndependent(t *testing.T) {
	throttle := NewMemoryThrottle(MemoryThrottleOptions{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	ok, _ := throttle.Allow(ctx, "10.0.0.1")
	assert.True(t, ok)
	ok, _ = throttle.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	ok, _ = throttle.Allow(ctx, "10.0.0.2")
	assert.True(t, ok)
}

func TestMemoryThrottle_WindowExpiry(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	throttle := NewMemoryThrottle(MemoryThrottleOptions{
		Limit:  1,
		Window: time.Minute,
		Now:    func() time.Time { return current },
	})
	ctx := context.Background()

	ok, _ := throttle.Allow(ctx, "10.0.0.1")
	assert.True(t, ok)
	ok, _ = throttle.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	// Advance past the window: the counter starts fresh.
	current = current.Add(2 * time.Minute)
	ok, _ = throttle.Allow(ctx, "10.0.0.1")
	assert.True(t, ok)
}

func TestMemoryThrottle_Reset(t *testing.T) {
	throttle := NewMemoryThrottle(MemoryThrottleOptions{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	_, _ = throttle.Allow(ctx, "10.0.0.1")
	require.NoError(t, throttle.Reset(ctx, "10.0.0.1"))

	ok, _ := throttle.Allow(ctx, "10.0.0.1")
	assert.True(t, ok)
}
