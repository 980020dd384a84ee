package coordinator

import (
	"context"

	"github.com/greaka/gw2lib/client"
	"github.com/greaka/gw2lib/endpoint"
	gw2errors "github.com/greaka/gw2lib/errors"
	"github.com/greaka/gw2lib/response"
)

// Page fetches one page of a paged bulk endpoint and returns the server's
// reported total item count. Paging never touches the cache or inflight
// registry: page membership is server-order-dependent, not fingerprint-
// stable, so each call is a fresh request.
func Page[T endpoint.Bulk[I], I comparable](ctx context.Context, req client.Requester, page, pageSize int) ([]T, int, error) {
	var zero T
	d := zero.Endpoint()
	if !d.Paged {
		return nil, 0, gw2errors.ErrUnsupportedEndpointQuery
	}

	ctx, span := startSpan(ctx, req, "page", d.URL)
	defer span.End()

	httpReq, err := buildRequest(req, d, "", map[string][]string{
		"page":      {itoa(page)},
		"page_size": {itoa(pageSize)},
	})
	if err != nil {
		return nil, 0, err
	}

	limiter := req.Limiter()
	permit, err := limiter.Take(ctx, 1)
	if err != nil {
		return nil, 0, err
	}
	defer permit.Release(ctx)

	resp, err := req.Transport().Do(ctx, httpReq)
	if err != nil {
		return nil, 0, &gw2errors.RequestFailedError{Err: err}
	}

	total := response.ResultTotal(resp)
	_, items, err := response.Parse[[]T](ctx, resp, req.CacheDuration(), limiter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
