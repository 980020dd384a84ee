package client

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/greaka/gw2lib/cache"
	"github.com/greaka/gw2lib/inflight"
	"github.com/greaka/gw2lib/ratelimit"
	"github.com/greaka/gw2lib/transport"
)

// CachedRequest overrides the cache lifetime every request issued through
// it uses, regardless of what the response's Cache-Control header says.
// Carried over from original_source/http-async/src/client/mod.rs's
// CachedRequest. Its Forced() is always false; the forced-refresh role is
// the separate ForcedRequest type below, which behaves like a
// zero-duration CachedRequest whose Forced() is true.
type CachedRequest[A Auth] struct {
	client   Client[A]
	duration time.Duration
}

func (r CachedRequest[A]) Host() string                   { return r.client.Host() }
func (r CachedRequest[A]) Language() string                { return r.client.Language() }
func (r CachedRequest[A]) APIKey() (string, bool)          { return r.client.APIKey() }
func (r CachedRequest[A]) Identifier() string              { return r.client.Identifier() }
func (r CachedRequest[A]) Authenticated() bool             { return r.client.Authenticated() }
func (r CachedRequest[A]) Cache() cache.Cache              { return r.client.Cache() }
func (r CachedRequest[A]) Limiter() ratelimit.Limiter      { return r.client.Limiter() }
func (r CachedRequest[A]) Inflight() *inflight.Registry    { return r.client.Inflight() }
func (r CachedRequest[A]) Transport() transport.Transport  { return r.client.Transport() }
func (r CachedRequest[A]) Logger() zerolog.Logger          { return r.client.Logger() }
func (r CachedRequest[A]) Tracer() trace.Tracer            { return r.client.Tracer() }
func (r CachedRequest[A]) CacheDuration() time.Duration    { return r.duration }
func (r CachedRequest[A]) Forced() bool                    { return false }

// ForcedRequest skips the cache read before issuing a request (the
// response is still written to the cache on success). The zero value of
// duration here means "use the response's Cache-Control header", per
// Forced() being sugar for Cached(0) with the read-skip bit set.
type ForcedRequest[A Auth] struct {
	client Client[A]
}

func (r ForcedRequest[A]) Host() string                  { return r.client.Host() }
func (r ForcedRequest[A]) Language() string               { return r.client.Language() }
func (r ForcedRequest[A]) APIKey() (string, bool)         { return r.client.APIKey() }
func (r ForcedRequest[A]) Identifier() string             { return r.client.Identifier() }
func (r ForcedRequest[A]) Authenticated() bool            { return r.client.Authenticated() }
func (r ForcedRequest[A]) Cache() cache.Cache             { return r.client.Cache() }
func (r ForcedRequest[A]) Limiter() ratelimit.Limiter     { return r.client.Limiter() }
func (r ForcedRequest[A]) Inflight() *inflight.Registry   { return r.client.Inflight() }
func (r ForcedRequest[A]) Transport() transport.Transport { return r.client.Transport() }
func (r ForcedRequest[A]) Logger() zerolog.Logger         { return r.client.Logger() }
func (r ForcedRequest[A]) Tracer() trace.Tracer           { return r.client.Tracer() }
func (r ForcedRequest[A]) CacheDuration() time.Duration   { return 0 }
func (r ForcedRequest[A]) Forced() bool                   { return true }
