package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRateLimiter_WithinLimit は上限以内の呼び出しが待機しないことを検証します。
func TestRateLimiter_WithinLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, time.Hour)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.WaitIfNeeded(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

// TestRateLimiter_WaitsForWindow は上限超過時に次の窓まで待機することを検証します。
func TestRateLimiter_WaitsForWindow(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 80*time.Millisecond)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	start := time.Now()
	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, 1, rl.count)
}

// TestRateLimiter_ContextCanceled は待機中のキャンセルでエラーを返すことを検証します。
func TestRateLimiter_ContextCanceled(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, time.Hour)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.WaitIfNeeded(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, rl.count)
}

// TestRateLimiter_Unlimited は limit <= 0 と Unlimited が待機しないことを検証します。
func TestRateLimiter_Unlimited(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0, time.Hour)
	for i := 0; i < 10; i++ {
		require.NoError(t, rl.WaitIfNeeded(context.Background()))
	}
	require.NoError(t, Unlimited{}.WaitIfNeeded(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Unlimited{}.WaitIfNeeded(ctx), context.Canceled)
}
