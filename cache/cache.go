// Package cache implements the fingerprinted response cache described in
// the request coordination engine: a store of parsed responses with
// expiry, partitioned into a static region (entries inserted with
// authenticated=false; survives auth changes) and an authenticated region
// (keyed additionally by auth-identifier, independently wipeable).
//
// The interface is deliberately untyped (any) at the storage layer —
// generic methods on a Go interface aren't possible — and the generic
// Get/Insert helpers below do the type assertion at the call site. This
// mirrors the "serialize/tag with type name" approach the design notes
// suggest for languages without TypeId + Any, adapted to Go's reflect.Type
// (already folded into fingerprint.Key) standing in for TypeId.
package cache

import (
	"context"
	"time"

	"github.com/greaka/gw2lib/fingerprint"
)

// Locator carries everything a cache backend needs to place or find an
// entry: the fingerprint (used directly by the in-memory backend) plus
// the human-readable components (used by the Redis backend to build the
// gw2lib_{partition}_{url}_{lang?}_{authid?}_{id} key the spec names).
type Locator struct {
	Key fingerprint.Key

	// URL is the endpoint's path, e.g. "v2/items".
	URL string
	// ID is the id segment, "" for fixed endpoints, "all" for the
	// whole-collection ids=all entry.
	ID string
	// Lang is the requesting client's language code. The coordinator sets
	// it for every endpoint, locale-sensitive or not.
	Lang string
	// AuthID is the client's auth identifier, "" when the client holds no
	// API key. The coordinator sets it for every endpoint requested
	// through an authenticated client, whether or not the endpoint
	// itself requires authentication.
	AuthID string
}

// Cache is the storage interface the coordinator depends on. Both the
// in-memory and Redis-backed implementations satisfy it.
type Cache interface {
	// Insert stores value under loc, expiring at expiry. authenticated
	// selects which partition the entry lands in.
	Insert(ctx context.Context, loc Locator, value any, expiry time.Time, authenticated bool) error

	// Get returns the stored value for loc if present and not expired.
	// An expired entry is treated as absent even before the periodic
	// sweep runs, and is removed as a side effect of this call.
	Get(ctx context.Context, loc Locator, authenticated bool) (any, bool)

	// Cleanup sweeps expired entries from both partitions.
	Cleanup(ctx context.Context)

	// WipeStatic clears the static partition unconditionally.
	WipeStatic(ctx context.Context) error

	// WipeAuthenticated clears the authenticated partition unconditionally.
	WipeAuthenticated(ctx context.Context) error
}

// Wipe clears both partitions of c. It's sugar over WipeStatic +
// WipeAuthenticated, matching the default `wipe()` method the Rust trait
// provides.
func Wipe(ctx context.Context, c Cache) error {
	if err := c.WipeStatic(ctx); err != nil {
		return err
	}
	return c.WipeAuthenticated(ctx)
}

// Get retrieves a typed value from c, returning ok=false on a cache miss,
// an expired entry, or a stored value whose dynamic type doesn't match T
// (which should never happen in practice since fingerprint.Key already
// folds in reflect.Type, but is checked defensively).
func Get[T any](ctx context.Context, c Cache, loc Locator, authenticated bool) (T, bool) {
	var zero T
	v, ok := c.Get(ctx, loc, authenticated)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Insert stores a typed value in c.
func Insert[T any](ctx context.Context, c Cache, loc Locator, value T, expiry time.Time, authenticated bool) error {
	return c.Insert(ctx, loc, value, expiry, authenticated)
}
