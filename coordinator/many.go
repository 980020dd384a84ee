package coordinator

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/greaka/gw2lib/cache"
	"github.com/greaka/gw2lib/client"
	"github.com/greaka/gw2lib/endpoint"
	"github.com/greaka/gw2lib/fingerprint"
	"github.com/greaka/gw2lib/inflight"
)

// Many fetches a batch of id-addressed resources, splitting requested
// ids into cache hits and misses, coalescing misses through the inflight
// registry, and chunking whatever's left into groups of at most 200 ids
// per the server's bulk limit. Duplicates are possible if the server
// answers with an id outside the requested chunk; callers must not
// assume a strict one-to-one mapping back to the input order.
func Many[T endpoint.Bulk[I], I comparable](ctx context.Context, req client.Requester, ids []I) ([]T, error) {
	var zero T
	d := zero.Endpoint()

	ctx, span := startSpan(ctx, req, "many", d.URL)
	defer span.End()
	span.SetAttributes(attribute.Int("gw2lib.requested_ids", len(ids)))

	locatorFor := func(id I) (fingerprint.Key, cache.Locator) {
		idStr := zero.EncodeID(id)
		fp := fingerprint.ForStrings[T](idStr, req.Language(), authID(req))
		return fp, cache.Locator{Key: fp, URL: d.URL, ID: idStr, Lang: req.Language(), AuthID: authID(req)}
	}

	var result []T
	var misses []I

	for _, id := range ids {
		if !req.Forced() {
			_, loc := locatorFor(id)
			if v, ok := cache.Get[T](ctx, req.Cache(), loc, req.Authenticated()); ok {
				result = append(result, v)
				continue
			}
		}
		misses = append(misses, id)
	}

	if len(misses) == 0 {
		return result, nil
	}

	// guards holds the producer role for each id this call won; waiters
	// holds the receivers for ids someone else is already fetching.
	guards := make(map[I]*inflight.Guard, len(misses))
	var waiters []*inflight.Receiver
	var remaining []I

	for _, id := range misses {
		fp, _ := locatorFor(id)
		receiver, guard := req.Inflight().Enter(fp)
		if guard == nil {
			waiters = append(waiters, receiver)
			continue
		}
		guards[id] = guard
		remaining = append(remaining, id)
	}

	var mu sync.Mutex
	appendResult := func(v T) {
		mu.Lock()
		result = append(result, v)
		mu.Unlock()
	}

	// A plain errgroup.Group (not WithContext) is deliberate: its Wait
	// collects the first error but never cancels a context, so a chunk
	// already in flight always runs to completion and still gets to
	// publish or abandon its guards — "collect all errors, wait for
	// remaining chunks, surface first error, never abort a chunk in
	// flight."
	var g errgroup.Group
	for _, c := range chunk(remaining, bulkChunkSize) {
		c := c
		g.Go(func() error {
			return runChunk[T, I](ctx, req, d, c, guards, &mu, appendResult, locatorFor)
		})
	}
	firstErr := g.Wait()

	for _, w := range waiters {
		v, err := w.Recv()
		w.Close()
		if err != nil {
			// The producer abandoned without publishing, either because
			// its chunk request failed (already surfaced as firstErr by
			// that chunk's own runChunk) or because the server simply
			// didn't return this id. Either way there's nothing new to
			// report here: surfacing ErrInflightReceiveFailed itself
			// would treat "id absent from the response" as an error,
			// inconsistent with how a direct chunk miss is silently
			// omitted from result.
			continue
		}
		appendResult(v.(T))
	}

	if firstErr != nil {
		span.RecordError(firstErr)
	}
	return result, firstErr
}

// runChunk executes one bulk HTTP call for the ids in c, publishing or
// abandoning each id's guard as its result becomes known. Guards are
// protected by mu only for the map lookups; Publish/Abandon themselves
// are safe to call concurrently from multiple chunks since each id's
// guard is only ever touched by the one chunk that owns it.
func runChunk[T endpoint.Bulk[I], I comparable](
	ctx context.Context,
	req client.Requester,
	d endpoint.Descriptor,
	c []I,
	guards map[I]*inflight.Guard,
	mu *sync.Mutex,
	appendResult func(T),
	locatorFor func(I) (fingerprint.Key, cache.Locator),
) error {
	abandonAll := func() {
		mu.Lock()
		defer mu.Unlock()
		for _, id := range c {
			if g, ok := guards[id]; ok {
				g.Abandon()
				delete(guards, id)
			}
		}
	}

	httpReq, err := buildRequest(req, d, "", queryValues("ids", joinIDs[T, I](c)))
	if err != nil {
		abandonAll()
		return err
	}

	expiry, items, err := execute[[]T](ctx, req, httpReq)
	if err != nil {
		abandonAll()
		return err
	}

	seen := make(map[I]bool, len(c))
	for _, item := range items {
		id := item.ID()
		seen[id] = true

		_, loc := locatorFor(id)
		_ = cache.Insert(ctx, req.Cache(), loc, item, expiry, req.Authenticated())
		appendResult(item)

		mu.Lock()
		g, ok := guards[id]
		if ok {
			delete(guards, id)
		}
		mu.Unlock()
		if ok {
			g.Publish(item)
		}
	}

	// Any id in this chunk the server didn't answer for never gets a
	// cache entry; its guard is abandoned so waiting consumers fall back
	// to a cache re-check instead of blocking forever.
	mu.Lock()
	for _, id := range c {
		if seen[id] {
			continue
		}
		if g, ok := guards[id]; ok {
			g.Abandon()
			delete(guards, id)
		}
	}
	mu.Unlock()
	return nil
}
