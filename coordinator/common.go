// Package coordinator implements the nine Requester operations: the
// cache → inflight → rate-limit → transport → parse → cache-write →
// broadcast pipeline every request goes through, plus bulk chunking and
// the three "fetch all" strategies. Each operation is a free function
// parameterized by the endpoint's result and id types, operating on a
// client.Requester — the Go analog of the upstream trait's default
// methods, since Go has no default interface methods to hang this logic
// on directly.
package coordinator

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/greaka/gw2lib/client"
	"github.com/greaka/gw2lib/endpoint"
	gw2errors "github.com/greaka/gw2lib/errors"
	"github.com/greaka/gw2lib/response"
	"github.com/greaka/gw2lib/transport"
)

// bulkChunkSize is the maximum number of ids joined into one ids=
// query value, per the gw2 API's own limit on bulk requests.
const bulkChunkSize = 200

// buildRequest assembles the transport.Request for one endpoint call: v=,
// then any endpoint-specific additions, then lang= for locale-sensitive
// endpoints and access_token= for authenticated ones. Query is a map, so
// it does not keep that order; HTTPTransport encodes the parameters
// sorted by key.
func buildRequest(req client.Requester, d endpoint.Descriptor, idSegment string, extra map[string][]string) (transport.Request, error) {
	if d.Authenticated && !req.Authenticated() {
		return transport.Request{}, gw2errors.ErrNotAuthenticated
	}

	u := strings.TrimRight(req.Host(), "/") + "/" + d.URL
	if idSegment != "" {
		u += "/" + idSegment
	}

	query := url.Values{}
	query.Set("v", d.Version)
	for k, vs := range extra {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	if d.Locale {
		query.Set("lang", req.Language())
	}
	if d.Authenticated {
		key, _ := req.APIKey()
		query.Set("access_token", key)
	}

	return transport.Request{
		Method:  http.MethodGet,
		URL:     u,
		Headers: make(http.Header),
		Query:   query,
	}, nil
}

// execute runs one HTTP call through the rate limiter and parses the
// result as T, using req's forced cache-duration override if set. The
// permit is always released before execute returns, successful or not.
func execute[T any](ctx context.Context, req client.Requester, httpReq transport.Request) (time.Time, T, error) {
	var zero T

	limiter := req.Limiter()
	permit, err := limiter.Take(ctx, 1)
	if err != nil {
		return time.Time{}, zero, err
	}
	defer permit.Release(ctx)

	resp, err := req.Transport().Do(ctx, httpReq)
	if err != nil {
		return time.Time{}, zero, &gw2errors.RequestFailedError{Err: err}
	}

	return response.Parse[T](ctx, resp, req.CacheDuration(), limiter)
}

// authID returns the identifier cache.Locator partitions authenticated
// entries by, "" when req isn't authenticated. It depends on the client
// only: the operations in this package pass it, req.Language() and
// req.Authenticated() (as the cache partition) for every endpoint,
// whatever the endpoint's own Locale and Authenticated flags say.
func authID(req client.Requester) string {
	if !req.Authenticated() {
		return ""
	}
	return req.Identifier()
}

// queryValues builds a single-key url.Values-shaped map, a small helper
// to keep call sites in the per-operation files terse.
func queryValues(key, value string) map[string][]string {
	return map[string][]string{key: {value}}
}

// chunk splits ids into groups of at most bulkChunkSize.
func chunk[I any](ids []I, size int) [][]I {
	if size <= 0 {
		size = bulkChunkSize
	}
	var out [][]I
	for len(ids) > 0 {
		n := size
		if n > len(ids) {
			n = len(ids)
		}
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}

// joinIDs renders ids as the comma-separated value for an ids= query
// parameter, per the Bulk endpoint's EncodeIDList.
func joinIDs[T endpoint.Bulk[I], I comparable](ids []I) string {
	var zero T
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = zero.EncodeIDList(id)
	}
	return strings.Join(parts, ",")
}

func itoa(n int) string { return strconv.Itoa(n) }

// startSpan opens a child span named "gw2lib.<op>" tagged with the
// endpoint url, the way the upstream wgmesh fetch span covers one
// logical operation from the caller's perspective. Callers must defer
// span.End().
func startSpan(ctx context.Context, req client.Requester, op, url string) (context.Context, trace.Span) {
	ctx, span := req.Tracer().Start(ctx, "gw2lib."+op)
	span.SetAttributes(attribute.String("gw2lib.url", url))
	return ctx, span
}
