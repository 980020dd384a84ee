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

// Requester is the protocol the coordinator package's free functions
// operate on. Client itself and the two decorators (CachedRequest,
// ForcedRequest) all implement it, playing the role the upstream trait's
// default methods play in a language with no equivalent in Go.
type Requester interface {
	// Host is the API base URL, no trailing slash.
	Host() string
	// Language is the `lang` query parameter sent to locale-sensitive
	// endpoints.
	Language() string
	// APIKey returns the configured key and whether one is set.
	APIKey() (string, bool)
	// Identifier is the auth-identifier mixed into fingerprints for
	// authenticated requests: the API key unless a distinct identifier
	// was configured.
	Identifier() string
	// Authenticated reports whether this requester's Client carries an
	// API key — distinct from the endpoint's own AUTHENTICATED flag.
	Authenticated() bool

	Cache() cache.Cache
	Limiter() ratelimit.Limiter
	Inflight() *inflight.Registry
	Transport() transport.Transport
	Logger() zerolog.Logger
	Tracer() trace.Tracer

	// CacheDuration is the forced cache lifetime a CachedRequest/
	// ForcedRequest imposes; zero means "use the response's
	// Cache-Control header instead".
	CacheDuration() time.Duration
	// Forced reports whether this requester skips the cache read before
	// issuing a request (ForcedRequest / cached(0)-with-force).
	Forced() bool
}
