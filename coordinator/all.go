package coordinator

import (
	"context"

	"github.com/greaka/gw2lib/cache"
	"github.com/greaka/gw2lib/client"
	"github.com/greaka/gw2lib/endpoint"
	gw2errors "github.com/greaka/gw2lib/errors"
	"github.com/greaka/gw2lib/fingerprint"
)

// allPageSize is the page size used internally by GetAllByPaging; 200 is
// the same bulk-request ceiling the server enforces on ids= lists.
const allPageSize = 200

// All fetches every item of a bulk endpoint, picking the cheapest
// strategy the endpoint descriptor supports: ids=all when the endpoint
// allows it, otherwise ids() followed by many().
func All[T endpoint.Bulk[I], I comparable](ctx context.Context, req client.Requester) ([]T, error) {
	var zero T
	ctx, span := startSpan(ctx, req, "all", zero.Endpoint().URL)
	defer span.End()

	if zero.Endpoint().AllSupported {
		return GetAllByIDsAll[T, I](ctx, req)
	}
	return GetAllByRequestingIDs[T, I](ctx, req)
}

// GetAllByIDsAll requests the endpoint's whole collection via `ids=all`
// in one call, caching both the collection as a whole (under a
// special "ids=all" fingerprint) and each returned item under its own
// id key, so a later Single/Many for the same item is a cache hit.
func GetAllByIDsAll[T endpoint.Bulk[I], I comparable](ctx context.Context, req client.Requester) ([]T, error) {
	var zero T
	d := zero.Endpoint()
	if !d.AllSupported {
		return nil, gw2errors.ErrUnsupportedEndpointQuery
	}

	type allResult = []T
	fp := fingerprint.ForAll[allResult](req.Language(), authID(req))
	loc := cache.Locator{Key: fp, URL: d.URL, ID: "all", Lang: req.Language(), AuthID: authID(req)}

	for {
		if !req.Forced() {
			if v, ok := cache.Get[allResult](ctx, req.Cache(), loc, req.Authenticated()); ok {
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
			return v.(allResult), nil
		}

		httpReq, err := buildRequest(req, d, "", queryValues("ids", "all"))
		if err != nil {
			guard.Abandon()
			return nil, err
		}

		expiry, items, err := execute[allResult](ctx, req, httpReq)
		if err != nil {
			guard.Abandon()
			return nil, err
		}

		_ = cache.Insert(ctx, req.Cache(), loc, items, expiry, req.Authenticated())
		for _, item := range items {
			idStr := zero.EncodeID(item.ID())
			itemLoc := cache.Locator{
				Key:    fingerprint.ForStrings[T](idStr, req.Language(), authID(req)),
				URL:    d.URL,
				ID:     idStr,
				Lang:   req.Language(),
				AuthID: authID(req),
			}
			_ = cache.Insert(ctx, req.Cache(), itemLoc, item, expiry, req.Authenticated())
		}

		guard.Publish(items)
		return items, nil
	}
}

// GetAllByRequestingIDs obtains the id list via IDs() — itself cached
// and coalesced — then fetches every id through Many().
func GetAllByRequestingIDs[T endpoint.Bulk[I], I comparable](ctx context.Context, req client.Requester) ([]T, error) {
	ids, err := IDs[T, I](ctx, req)
	if err != nil {
		return nil, err
	}
	return Many[T, I](ctx, req, ids)
}

// GetAllByPaging walks every page of a paged endpoint sequentially,
// starting at page size 200. It never touches the cache: unlike
// GetAllByIDsAll and GetAllByRequestingIDs, this is an explicit opt-in
// for cold-cache bulk loads where per-request overhead matters more than
// later cache hits.
func GetAllByPaging[T endpoint.Bulk[I], I comparable](ctx context.Context, req client.Requester) ([]T, error) {
	var zero T
	if !zero.Endpoint().Paged {
		return nil, gw2errors.ErrUnsupportedEndpointQuery
	}

	first, total, err := Page[T, I](ctx, req, 1, allPageSize)
	if err != nil {
		return nil, err
	}

	all := make([]T, 0, total)
	all = append(all, first...)

	remaining := total - allPageSize
	if remaining <= 0 {
		return all, nil
	}
	pages := (remaining + allPageSize - 1) / allPageSize

	for p := 2; p <= pages+1; p++ {
		items, _, err := Page[T, I](ctx, req, p, allPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}

	return all, nil
}
