package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	gw2errors "github.com/greaka/gw2lib/errors"
)

// BucketLimiter is the in-memory token-bucket limiter, sized to match the
// gw2 API's own policy by default (burst 300, refill 300/minute).
//
// The bucket tracks a single "next available" instant, exactly as the
// upstream implementation this is ported from does: Take computes how
// long the caller must wait for num tokens to be free and advances the
// instant by num refill-intervals; Penalize advances it by half a
// refill-interval, modeling the server's 429 penalty. A
// golang.org/x/sync/semaphore.Weighted sized at burst additionally
// serializes concurrent Take calls so that a caller requesting a large
// num can't be starved by a flood of 1-token callers jumping the queue,
// and so that a Penalize applied mid-wait correctly delays everyone still
// queued (the direct analog of the tokio Semaphore in
// original_source/http/src/rate_limit/in_memory.rs).
type BucketLimiter struct {
	burst  int
	refill int // tokens per minute

	mu            sync.Mutex
	nextAvailable time.Time

	sem *semaphore.Weighted
}

// NewBucketLimiter creates a limiter with the given burst capacity and
// refill rate (tokens per minute).
func NewBucketLimiter(burst, refill int) *BucketLimiter {
	b := &BucketLimiter{
		burst:  burst,
		refill: refill,
		sem:    semaphore.NewWeighted(int64(burst)),
	}
	b.nextAvailable = time.Now().Add(-b.burstSpan())
	return b
}

// DefaultBucketLimiter matches the gw2 API's documented policy: 300
// requests of burst, refilling at 300 per minute.
func DefaultBucketLimiter() *BucketLimiter {
	return NewBucketLimiter(300, 300)
}

func (b *BucketLimiter) burstSpan() time.Duration {
	return time.Duration(float64(time.Minute) * float64(b.burst) / float64(b.refill))
}

func (b *BucketLimiter) refillInterval() time.Duration {
	return time.Duration(float64(time.Minute) / float64(b.refill))
}

func (b *BucketLimiter) Take(ctx context.Context, num int) (*Permit, error) {
	if num > b.burst {
		return nil, &gw2errors.RateLimiterBucketExceededError{Requested: num, Burst: b.burst}
	}

	if err := b.sem.Acquire(ctx, int64(num)); err != nil {
		return nil, err
	}

	wait := b.reserve(num)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			b.sem.Release(int64(num))
			return nil, ctx.Err()
		}
	}

	return newPermit(b, num), nil
}

// reserve clamps the lower bound of nextAvailable so the bucket can't
// "store" more than burst tokens of credit, returns how long the caller
// must wait, and advances nextAvailable by num refill-intervals.
func (b *BucketLimiter) reserve(num int) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	base := now.Add(-b.burstSpan())
	if b.nextAvailable.Before(base) {
		b.nextAvailable = base
	}

	wait := b.nextAvailable.Sub(now)
	b.nextAvailable = b.nextAvailable.Add(b.refillInterval() * time.Duration(num))

	if wait < 0 {
		return 0
	}
	return wait
}

// Penalize advances nextAvailable by half a refill-interval, the penalty
// the gw2 API imposes when it answers 429.
func (b *BucketLimiter) Penalize(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if b.nextAvailable.Before(now) {
		b.nextAvailable = now
	}
	b.nextAvailable = b.nextAvailable.Add(b.refillInterval() / 2)
	return nil
}

func (b *BucketLimiter) release(_ context.Context, num int) {
	b.sem.Release(int64(num))
}
