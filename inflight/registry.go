// Package inflight implements request coalescing: while a request for a
// given fingerprint is in progress, concurrent callers for the same
// fingerprint subscribe to its result instead of issuing a second HTTP
// call. One caller wins the producer role and publishes the result (or
// abandons, leaving the slot's channel closed); everyone else is a
// consumer that simply waits on the channel.
//
// The upstream implementation this is ported from keys the registry's
// slots by a weak reference to the broadcast sender, so an entry
// disappears the instant its producer drops without needing an explicit
// refcount. Go interfaces can't hold a weak.Pointer the way a concrete
// struct pointer can (weak.Pointer is generic over a concrete type, and
// the registry needs to reference "whatever guard happens to own this
// slot" polymorphically), so Registry falls back to an explicit refcount
// plus an abandoned flag, tracking the same lifecycle by hand instead of
// leaning on the garbage collector.
package inflight

import (
	"sync"

	gw2errors "github.com/greaka/gw2lib/errors"
	"github.com/greaka/gw2lib/fingerprint"
)

// slot is one in-progress request. done is closed exactly once, by the
// Guard, and is the broadcast signal every blocked Receiver wakes up on.
// The published value lives in publishedVal rather than being sent over
// the channel: a value sent on a channel is delivered to exactly one
// receiver, which would turn this into a work queue instead of a
// broadcast; closing done and reading publishedVal separately is what
// lets every subscriber observe the same result.
type slot struct {
	done chan struct{}

	mu           sync.Mutex
	refs         int
	published    bool
	publishedVal any
}

// Registry is the process-local map from fingerprint to in-progress
// request. The zero value is not usable; use NewRegistry.
type Registry struct {
	mu    sync.Mutex
	slots map[fingerprint.Key]*slot
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[fingerprint.Key]*slot)}
}

// Enter performs the atomic check-or-insert the coordinator needs before
// issuing a request: if no request for fp is in flight, the caller
// becomes the producer and gets back a *Guard; otherwise it becomes a
// consumer and gets back a *Receiver subscribed to the existing
// producer's result.
func (r *Registry) Enter(fp fingerprint.Key) (*Receiver, *Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.slots[fp]; ok {
		s.mu.Lock()
		s.refs++
		s.mu.Unlock()
		return &Receiver{registry: r, fp: fp, slot: s}, nil
	}

	s := &slot{done: make(chan struct{}), refs: 1}
	r.slots[fp] = s
	return nil, &Guard{registry: r, fp: fp, slot: s}
}

func (r *Registry) removeIfCurrent(fp fingerprint.Key, s *slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slots[fp] == s {
		delete(r.slots, fp)
	}
}

// Receiver is the consumer side of an in-flight request: the producer
// role has already been claimed by someone else.
type Receiver struct {
	registry *Registry
	fp       fingerprint.Key
	slot     *slot

	closed bool
}

// Recv blocks until the producer publishes a value or abandons. A
// closed-without-publish result surfaces ErrInflightReceiveFailed, which
// callers should treat as "re-check the cache, then retry as if no slot
// existed" per the coordination contract.
func (rc *Receiver) Recv() (any, error) {
	<-rc.slot.done

	rc.slot.mu.Lock()
	defer rc.slot.mu.Unlock()
	if !rc.slot.published {
		return nil, gw2errors.ErrInflightReceiveFailed
	}
	return rc.slot.publishedVal, nil
}

// Close releases this receiver's reference. Safe to call once; further
// calls are no-ops. A receiver that never calls Recv (e.g. it gave up
// waiting) must still call Close so the slot's refcount stays accurate.
func (rc *Receiver) Close() {
	if rc.closed {
		return
	}
	rc.closed = true
	rc.slot.release(rc.registry, rc.fp)
}

// Guard is the producer side of an in-flight request: the caller holding
// it is responsible for performing the request and calling exactly one
// of Publish or Abandon.
type Guard struct {
	registry *Registry
	fp       fingerprint.Key
	slot     *slot

	done bool
}

// Publish broadcasts v to every current and future-arriving-before-close
// consumer, then releases the guard's own reference. Must be called at
// most once; a second call is a no-op.
func (g *Guard) Publish(v any) {
	if g.done {
		return
	}
	g.done = true

	g.slot.mu.Lock()
	g.slot.published = true
	g.slot.publishedVal = v
	g.slot.mu.Unlock()

	close(g.slot.done)
	g.slot.release(g.registry, g.fp)
}

// Abandon drops the producer role without publishing: every blocked
// Receiver.Recv returns ErrInflightReceiveFailed. Called on the request's
// error path.
func (g *Guard) Abandon() {
	if g.done {
		return
	}
	g.done = true

	close(g.slot.done)
	g.slot.release(g.registry, g.fp)
}

// release decrements the slot's refcount and removes it from the
// registry once the last holder (producer or consumer) lets go, mirroring
// the weak-reference-drops-to-zero lifecycle of the upstream design.
func (s *slot) release(r *Registry, fp fingerprint.Key) {
	s.mu.Lock()
	s.refs--
	empty := s.refs == 0
	s.mu.Unlock()

	if empty {
		r.removeIfCurrent(fp, s)
	}
}
