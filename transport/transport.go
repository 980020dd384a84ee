// Package transport abstracts the single HTTP call the coordinator needs
// to make, so tests can substitute a recording fake without standing up
// an httptest.Server for every scenario.
package transport

import (
	"context"
	"io"
	"net/http"
)

// Response is the subset of an HTTP response the coordinator's parser
// cares about: status, the two headers it inspects, and the body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Request describes a single outbound call. Query carries both repeated
// and single-value parameters (net/http's url.Values already models
// this).
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Query   map[string][]string
}

// Transport performs one HTTP round trip. The coordinator calls this once
// per actual network request; caching and coalescing happen above this
// layer so a Transport implementation never needs to know about either.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}
