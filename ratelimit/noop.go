package ratelimit

import "context"

// NoopLimiter never waits and never fails; Take returns an already-spent
// Permit immediately. Used by client.Empty() for callers that don't want
// any pacing applied. Mirrors original_source/http/src/rate_limit/noop.rs.
type NoopLimiter struct{}

// NewNoopLimiter creates a limiter that imposes no rate limiting at all.
func NewNoopLimiter() *NoopLimiter { return &NoopLimiter{} }

func (l *NoopLimiter) Take(context.Context, int) (*Permit, error) { return newPermit(l, 0), nil }
func (l *NoopLimiter) Penalize(context.Context) error              { return nil }
func (l *NoopLimiter) release(context.Context, int)                {}
