// Package ratelimit implements the token-bucket rate limiting the gw2 API
// enforces server-side: a limiter issues a future-dated Permit for N
// tokens, applies a penalty when the server answers 429, and releases
// tokens back to the bucket when a Permit is dropped.
package ratelimit

import (
	"context"
)

// Limiter is the interface the coordinator depends on.
type Limiter interface {
	// Take reserves num tokens and returns a Permit once they're
	// available. If num exceeds the bucket's burst capacity it fails
	// immediately with a *gw2errors.RateLimiterBucketExceededError.
	Take(ctx context.Context, num int) (*Permit, error)

	// Penalize advances the bucket's next-available instant, as if the
	// server had just rejected a request with 429. Called by the
	// response classifier on a 429 response.
	Penalize(ctx context.Context) error

	// release returns num tokens to the limiter. Only Permit.Release
	// calls this; it's not part of the public contract a caller drives
	// directly.
	release(ctx context.Context, num int)
}

// Permit is a RAII-style handle on num reserved tokens. Release must be
// called exactly once, typically via defer, regardless of whether the
// request the permit was acquired for succeeded.
type Permit struct {
	num     int
	limiter Limiter
	done    bool
}

// Release returns the permit's tokens to the limiter. Safe to call more
// than once; only the first call has an effect.
func (p *Permit) Release(ctx context.Context) {
	if p == nil || p.done {
		return
	}
	p.done = true
	p.limiter.release(ctx, p.num)
}

func newPermit(limiter Limiter, num int) *Permit {
	return &Permit{num: num, limiter: limiter}
}
