package coordinator

import (
	"context"

	"github.com/greaka/gw2lib/cache"
	"github.com/greaka/gw2lib/client"
	"github.com/greaka/gw2lib/endpoint"
	"github.com/greaka/gw2lib/fingerprint"
)

// Get fetches the single fixed-endpoint resource of type T, serving from
// cache when possible and coalescing concurrent callers onto one HTTP
// call. This is the shared engine behind both Get and the fixed-endpoint
// half of the library's public API; id-addressed endpoints go through
// Single/TrySingle instead, which layer id handling on top of the same
// cache → inflight → permit → execute pipeline.
func Get[T endpoint.Fixed](ctx context.Context, req client.Requester) (T, error) {
	var zero T
	d := zero.Endpoint()
	fp := fingerprint.ForStrings[T]("", req.Language(), authID(req))
	loc := cache.Locator{Key: fp, URL: d.URL, Lang: req.Language(), AuthID: authID(req)}

	ctx, span := startSpan(ctx, req, "get", d.URL)
	defer span.End()

	for {
		if !req.Forced() {
			if v, ok := cache.Get[T](ctx, req.Cache(), loc, req.Authenticated()); ok {
				return v, nil
			}
		}

		receiver, guard := req.Inflight().Enter(fp)
		if guard == nil {
			v, err := receiver.Recv()
			receiver.Close()
			if err != nil {
				// Producer abandoned without publishing; re-check the
				// cache and try to become the producer ourselves.
				continue
			}
			return v.(T), nil
		}

		v, err := fetchFixed[T](ctx, req, loc)
		if err != nil {
			guard.Abandon()
			span.RecordError(err)
			return zero, err
		}
		guard.Publish(v)
		return v, nil
	}
}

// fetchFixed performs the actual network round trip for a fixed endpoint
// and writes the result to the cache on success.
func fetchFixed[T endpoint.Fixed](ctx context.Context, req client.Requester, loc cache.Locator) (T, error) {
	var zero T
	d := zero.Endpoint()

	httpReq, err := buildRequest(req, d, "", nil)
	if err != nil {
		return zero, err
	}

	expiry, v, err := execute[T](ctx, req, httpReq)
	if err != nil {
		return zero, err
	}

	_ = cache.Insert(ctx, req.Cache(), loc, v, expiry, req.Authenticated())
	return v, nil
}
