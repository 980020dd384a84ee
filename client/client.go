// Package client implements the gw2lib Client: host/language/API-key
// configuration, the shared cache/rate-limiter/inflight-registry state
// every request goes through, and the Requester protocol the coordinator
// package operates on.
package client

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/greaka/gw2lib/cache"
	"github.com/greaka/gw2lib/inflight"
	"github.com/greaka/gw2lib/internal/logging"
	"github.com/greaka/gw2lib/internal/tracing"
	"github.com/greaka/gw2lib/ratelimit"
	"github.com/greaka/gw2lib/transport"
)

const defaultHost = "https://api.guildwars2.com"

// Client is immutable: every builder method returns a new value (or, for
// APIKey, a new value of a different instantiation) rather than mutating
// the receiver, so a Client already handed to a long-lived goroutine is
// never surprised by a later reconfiguration elsewhere.
type Client[A Auth] struct {
	host       string
	language   string
	apiKey     string
	hasAPIKey  bool
	identifier string

	cache     cache.Cache
	limiter   ratelimit.Limiter
	inflight  *inflight.Registry
	transport transport.Transport
	logger    zerolog.Logger
	tracer    trace.Tracer

	auth A
}

// New creates an unauthenticated client with an in-memory cache, the
// default in-memory bucket limiter, a fresh inflight registry, and the
// default net/http transport. This is the equivalent of the upstream
// library's `Client::default()` (InMemoryCache + BucketRateLimiter),
// distinguished from an `Empty()` client the way the Rust source
// distinguishes `default()` from `empty()`.
func New(userAgent string) Client[NotAuthenticated] {
	logger := logging.New()
	return Client[NotAuthenticated]{
		host:      defaultHost,
		language:  "en",
		cache:     cache.NewMemoryCache(),
		limiter:   ratelimit.DefaultBucketLimiter(),
		inflight:  inflight.NewRegistry(),
		transport: transport.NewHTTPTransport(userAgent, logger),
		logger:    logger,
		tracer:    tracing.NoopTracer(),
	}
}

// Empty creates a client with no caching and no rate limiting — every
// call goes straight to the network. Matches the upstream `Client::empty()`
// escape hatch for callers who bring their own coordination.
func Empty(userAgent string) Client[NotAuthenticated] {
	logger := zerolog.Nop()
	return Client[NotAuthenticated]{
		host:      defaultHost,
		language:  "en",
		cache:     cache.NewNoopCache(),
		limiter:   ratelimit.NewNoopLimiter(),
		inflight:  inflight.NewRegistry(),
		transport: transport.NewHTTPTransport(userAgent, logger),
		logger:    logger,
		tracer:    tracing.NoopTracer(),
	}
}

func (c Client[A]) Host() string { return c.host }

// WithHost returns a copy of c pointed at a different API host (e.g. a
// test server, or a community mirror).
func (c Client[A]) WithHost(host string) Client[A] {
	c.host = host
	return c
}

func (c Client[A]) Language() string { return c.language }

// WithLanguage returns a copy of c with a different `lang` query value.
func (c Client[A]) WithLanguage(lang string) Client[A] {
	c.language = lang
	return c
}

func (c Client[A]) APIKey() (string, bool) { return c.apiKey, c.hasAPIKey }

func (c Client[A]) Identifier() string {
	if c.identifier != "" {
		return c.identifier
	}
	return c.apiKey
}

// WithIdentifier overrides the auth-identifier mixed into fingerprints,
// independent of the API key itself — set this before WithAPIKey if you
// want a stable identifier across key rotations.
func (c Client[A]) WithIdentifier(id string) Client[A] {
	c.identifier = id
	return c
}

// WithAPIKey promotes c to an authenticated client. Configuring a new key
// wipes the authenticated cache partition, since cached responses under
// the old key may contain account-specific data the new key shouldn't
// see.
func (c Client[A]) WithAPIKey(key string) Client[Authenticated] {
	_ = c.cache.WipeAuthenticated(context.Background())
	return Client[Authenticated]{
		host:       c.host,
		language:   c.language,
		apiKey:     key,
		hasAPIKey:  true,
		identifier: c.identifier,
		cache:      c.cache,
		limiter:    c.limiter,
		inflight:   c.inflight,
		transport:  c.transport,
		logger:     c.logger,
		tracer:     c.tracer,
		auth:       Authenticated{},
	}
}

func (c Client[A]) Authenticated() bool { return c.auth.authenticated() }

func (c Client[A]) Cache() cache.Cache { return c.cache }

// WithCache swaps the cache backend (e.g. to a RedisCache shared across
// processes).
func (c Client[A]) WithCache(ca cache.Cache) Client[A] {
	c.cache = ca
	return c
}

func (c Client[A]) Limiter() ratelimit.Limiter { return c.limiter }

// WithRateLimiter swaps the rate limiter (e.g. to a RedisLimiter shared
// across processes, or a single limiter shared between multiple Clients).
func (c Client[A]) WithRateLimiter(l ratelimit.Limiter) Client[A] {
	c.limiter = l
	return c
}

func (c Client[A]) Inflight() *inflight.Registry { return c.inflight }

// WithInflightRegistry swaps the inflight registry, letting multiple
// Clients share request coalescing the way WithRateLimiter lets them
// share a bucket.
func (c Client[A]) WithInflightRegistry(r *inflight.Registry) Client[A] {
	c.inflight = r
	return c
}

func (c Client[A]) Transport() transport.Transport { return c.transport }

func (c Client[A]) WithTransport(t transport.Transport) Client[A] {
	c.transport = t
	return c
}

func (c Client[A]) Logger() zerolog.Logger { return c.logger }

func (c Client[A]) WithLogger(l zerolog.Logger) Client[A] {
	c.logger = l
	return c
}

func (c Client[A]) Tracer() trace.Tracer { return c.tracer }

func (c Client[A]) WithTracer(t trace.Tracer) Client[A] {
	c.tracer = t
	return c
}

// CacheDuration is always zero for a bare Client: Cached/Forced wrap it
// to override this.
func (c Client[A]) CacheDuration() time.Duration { return 0 }

// Forced is always false for a bare Client.
func (c Client[A]) Forced() bool { return false }

// Cached returns a decorator that forces every request issued through it
// to use the given cache lifetime regardless of the response's
// Cache-Control header.
func (c Client[A]) Cached(d time.Duration) CachedRequest[A] {
	return CachedRequest[A]{client: c, duration: d}
}

// ForceRefresh returns a decorator that skips the cache read before issuing a
// request — the response is still written to the cache on success, so
// subsequent uncached reads benefit.
func (c Client[A]) ForceRefresh() ForcedRequest[A] {
	return ForcedRequest[A]{client: c}
}

// CleanupCache synchronously sweeps expired entries, for callers that
// want a deterministic sweep point (e.g. before reporting cache size
// metrics) instead of waiting on the periodic background sweeper.
func (c Client[A]) CleanupCache(ctx context.Context) {
	c.cache.Cleanup(ctx)
}
