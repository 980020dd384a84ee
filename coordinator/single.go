package coordinator

import (
	"context"

	"github.com/greaka/gw2lib/cache"
	"github.com/greaka/gw2lib/client"
	"github.com/greaka/gw2lib/endpoint"
	"github.com/greaka/gw2lib/fingerprint"
)

// Single fetches one id-addressed resource, identical to Get except the
// URL gains an id segment and the fingerprint mixes the id in.
func Single[T endpoint.WithID[I], I comparable](ctx context.Context, req client.Requester, id I) (T, error) {
	var zero T
	d := zero.Endpoint()
	idStr := zero.EncodeID(id)
	fp := fingerprint.ForStrings[T](idStr, req.Language(), authID(req))
	loc := cache.Locator{Key: fp, URL: d.URL, ID: idStr, Lang: req.Language(), AuthID: authID(req)}

	ctx, span := startSpan(ctx, req, "single", d.URL)
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
				continue
			}
			return v.(T), nil
		}

		v, err := fetchSingle[T, I](ctx, req, loc, idStr)
		if err != nil {
			guard.Abandon()
			span.RecordError(err)
			return zero, err
		}
		guard.Publish(v)
		return v, nil
	}
}

// TrySingle is the cache-only variant of Single: it never issues a
// network request or joins the inflight registry, returning ok=false on
// a miss.
func TrySingle[T endpoint.WithID[I], I comparable](ctx context.Context, req client.Requester, id I) (T, bool) {
	var zero T
	idStr := zero.EncodeID(id)
	fp := fingerprint.ForStrings[T](idStr, req.Language(), authID(req))
	loc := cache.Locator{Key: fp, URL: zero.Endpoint().URL, ID: idStr, Lang: req.Language(), AuthID: authID(req)}
	return cache.Get[T](ctx, req.Cache(), loc, req.Authenticated())
}

func fetchSingle[T endpoint.WithID[I], I comparable](ctx context.Context, req client.Requester, loc cache.Locator, idStr string) (T, error) {
	var zero T
	d := zero.Endpoint()

	httpReq, err := buildRequest(req, d, idStr, nil)
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

// IDs fetches the list of ids for a bulk endpoint via its `ids` query
// (no `ids=` value at all — the bare request returns every id the
// endpoint knows about). The result is cached/coalesced under its own
// fingerprint, tagged by the slice-of-id result type so it never
// collides with Get/Single/Many's fingerprints for the same T.
func IDs[T endpoint.WithID[I], I comparable](ctx context.Context, req client.Requester) ([]I, error) {
	var zero T
	d := zero.Endpoint()

	type idList = []I
	fp := fingerprint.ForStrings[idList]("", req.Language(), authID(req))
	loc := cache.Locator{Key: fp, URL: d.URL, Lang: req.Language(), AuthID: authID(req)}

	for {
		if !req.Forced() {
			if v, ok := cache.Get[idList](ctx, req.Cache(), loc, req.Authenticated()); ok {
				return v, nil
			}
		}

		receiver, guard := req.Inflight().Enter(fp)
		if guard == nil {
			v, err := receiver.Recv()
			receiver.Close()
			if err != nil {
				continue
			}
			return v.(idList), nil
		}

		httpReq, err := buildRequest(req, d, "", nil)
		if err != nil {
			guard.Abandon()
			return nil, err
		}

		expiry, v, err := execute[idList](ctx, req, httpReq)
		if err != nil {
			guard.Abandon()
			return nil, err
		}

		_ = cache.Insert(ctx, req.Cache(), loc, v, expiry, req.Authenticated())
		guard.Publish(v)
		return v, nil
	}
}
