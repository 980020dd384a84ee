package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gw2errors "github.com/greaka/gw2lib/errors"
)

func TestBucketLimiter_TakeWithinBurstSucceedsImmediately(t *testing.T) {
	b := NewBucketLimiter(10, 600) // fast refill so waits in this test stay negligible
	ctx := context.Background()

	start := time.Now()
	permit, err := b.Take(ctx, 10)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	permit.Release(ctx)
}

func TestBucketLimiter_TakeAboveBurstFailsImmediately(t *testing.T) {
	b := NewBucketLimiter(10, 600)
	ctx := context.Background()

	_, err := b.Take(ctx, 11)
	require.Error(t, err)

	var exceeded *gw2errors.RateLimiterBucketExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 11, exceeded.Requested)
	assert.Equal(t, 10, exceeded.Burst)
}

func TestBucketLimiter_PermitReleaseReturnsExactTokens(t *testing.T) {
	b := NewBucketLimiter(5, 300)
	ctx := context.Background()

	permit, err := b.Take(ctx, 5)
	require.NoError(t, err)
	permit.Release(ctx)

	// Once released, another caller can acquire all 5 semaphore slots
	// again without Acquire blocking on them (the bucket's own timing is
	// exercised separately above).
	acquireCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, b.sem.Acquire(acquireCtx, 5))
	b.sem.Release(5)
}

func TestBucketLimiter_PermitReleaseIsIdempotent(t *testing.T) {
	b := NewBucketLimiter(5, 300)
	ctx := context.Background()

	permit, err := b.Take(ctx, 5)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		permit.Release(ctx)
		permit.Release(ctx)
	})
}

func TestBucketLimiter_PenalizeDelaysSubsequentTake(t *testing.T) {
	b := NewBucketLimiter(1, 600) // refill interval = 100ms
	ctx := context.Background()

	first, err := b.Take(ctx, 1)
	require.NoError(t, err)
	first.Release(ctx)

	require.NoError(t, b.Penalize(ctx))

	start := time.Now()
	second, err := b.Take(ctx, 1)
	require.NoError(t, err)
	second.Release(ctx)

	// Penalize adds half a refill interval (50ms) on top of whatever the
	// bucket already owed; the second Take must not return instantly.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestBucketLimiter_TakeRespectsContextCancellation(t *testing.T) {
	b := NewBucketLimiter(1, 6) // refill interval = 10s
	ctx := context.Background()

	// A full bucket starts one burst span in the past, so the first two
	// 1-token Takes are both due immediately; the third would block ~10s.
	first, err := b.Take(ctx, 1)
	require.NoError(t, err)
	first.Release(ctx)

	second, err := b.Take(ctx, 1)
	require.NoError(t, err)
	second.Release(ctx)

	cctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = b.Take(cctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
