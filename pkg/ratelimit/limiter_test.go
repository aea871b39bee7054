package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AcquireSucceedsImmediatelyWithinBurst(t *testing.T) {
	l := New(1, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx))
	}
}

func TestLimiter_AcquireBlocksUntilRefill(t *testing.T) {
	clock := time.Now()
	l := New(10, 1)
	l.now = func() time.Time { return clock }

	require.NoError(t, l.Acquire(context.Background()))

	wait, ok := l.tryAcquire()
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	clock = clock.Add(200 * time.Millisecond)
	require.NoError(t, l.Acquire(context.Background()))
}

func TestLimiter_AcquireRespectsContextCancellation(t *testing.T) {
	l := New(0.001, 1)
	_, ok := l.tryAcquire()
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_RefillNeverExceedsBurst(t *testing.T) {
	clock := time.Now()
	l := New(100, 2)
	l.now = func() time.Time { return clock }

	clock = clock.Add(10 * time.Second)
	l.mu.Lock()
	l.refillLocked()
	tokens := l.tokens
	l.mu.Unlock()

	assert.Equal(t, float64(2), tokens)
}
