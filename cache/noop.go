package cache

import (
	"context"
	"time"
)

// NoopCache never stores anything; every Get is a miss. Used by
// client.Empty() for callers that bring their own coordination and want
// the coordinator's plumbing without any of its bookkeeping, mirroring
// original_source/http/src/cache/noop.rs.
type NoopCache struct{}

// NewNoopCache creates a cache that discards everything inserted into it.
func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) Insert(context.Context, Locator, any, time.Time, bool) error { return nil }
func (NoopCache) Get(context.Context, Locator, bool) (any, bool)              { return nil, false }
func (NoopCache) Cleanup(context.Context)                                     {}
func (NoopCache) WipeStatic(context.Context) error                            { return nil }
func (NoopCache) WipeAuthenticated(context.Context) error                     { return nil }
