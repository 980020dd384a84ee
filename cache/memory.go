package cache

import (
	"context"
	"sync"
	"time"
	"weak"

	"github.com/greaka/gw2lib/fingerprint"
)

type entry struct {
	value  any
	expiry time.Time
}

// MemoryCache is the in-process cache backend: two RWMutex-protected maps,
// one per partition. A sync.RWMutex is chosen over sync.Map for the same
// reason O-tero's L1Cache picks it: a bulk sweep and a bulk wipe both need
// to walk every entry, which sync.Map makes awkward (no atomic bulk
// clear/iterate-and-delete without racing new writers).
type MemoryCache struct {
	staticMu sync.RWMutex
	static   map[cacheKey]entry

	authMu sync.RWMutex
	auth   map[cacheKey]entry
}

// cacheKey is the map key for the in-memory backend: just the fingerprint.
// The human-readable Locator fields exist for the Redis backend's benefit
// and are ignored here.
type cacheKey = fingerprint.Key

// NewMemoryCache creates an empty in-memory cache and registers it with
// the process-wide periodic sweeper.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		static: make(map[cacheKey]entry),
		auth:   make(map[cacheKey]entry),
	}
	registerForSweep(c)
	return c
}

func (c *MemoryCache) Insert(_ context.Context, loc Locator, value any, expiry time.Time, authenticated bool) error {
	key := loc.Key
	if authenticated {
		c.authMu.Lock()
		defer c.authMu.Unlock()
		c.auth[key] = entry{value: value, expiry: expiry}
		return nil
	}
	c.staticMu.Lock()
	defer c.staticMu.Unlock()
	c.static[key] = entry{value: value, expiry: expiry}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, loc Locator, authenticated bool) (any, bool) {
	if authenticated {
		return getFrom(&c.authMu, c.auth, loc.Key)
	}
	return getFrom(&c.staticMu, c.static, loc.Key)
}

// getFrom implements the lazy-expiry read: an expired entry is reported
// absent and removed inline, without waiting for the periodic sweep.
func getFrom(mu *sync.RWMutex, m map[cacheKey]entry, key cacheKey) (any, bool) {
	mu.RLock()
	e, ok := m[key]
	mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Now().Before(e.expiry) {
		return e.value, true
	}

	mu.Lock()
	// re-check: another goroutine may have refreshed the entry between
	// our RUnlock and this Lock.
	if cur, ok := m[key]; ok && !time.Now().Before(cur.expiry) {
		delete(m, key)
	}
	mu.Unlock()
	return nil, false
}

func (c *MemoryCache) Cleanup(_ context.Context) {
	sweep(&c.staticMu, c.static)
	sweep(&c.authMu, c.auth)
}

// sweep removes expired entries. The correct comparison is expiry > now
// retains an entry; anything else is evicted. (An earlier revision of the
// upstream implementation this was ported from inverted this comparison,
// which silently turned the sweep into a cache that only ever grew —
// don't reintroduce that.)
func sweep(mu *sync.RWMutex, m map[fingerprint.Key]entry) {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now()
	for k, e := range m {
		if !e.expiry.After(now) {
			delete(m, k)
		}
	}
}

func (c *MemoryCache) WipeStatic(_ context.Context) error {
	c.staticMu.Lock()
	defer c.staticMu.Unlock()
	c.static = make(map[fingerprint.Key]entry)
	return nil
}

func (c *MemoryCache) WipeAuthenticated(_ context.Context) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	c.auth = make(map[fingerprint.Key]entry)
	return nil
}

// Size reports the number of live entries across both partitions. Useful
// for tests and metrics; not part of the Cache interface.
func (c *MemoryCache) Size() int {
	c.staticMu.RLock()
	n := len(c.static)
	c.staticMu.RUnlock()
	c.authMu.RLock()
	n += len(c.auth)
	c.authMu.RUnlock()
	return n
}

var (
	sweeperMu      sync.Mutex
	sweeperCaches  []weak.Pointer[MemoryCache]
	sweeperRunning bool
)

// registerForSweep adds c to the process-wide periodic sweep. A single
// background goroutine per process keeps weak references to all
// registered caches and polls every 60 seconds; when every registered
// cache has been garbage collected the goroutine exits, and is
// re-spawned the next time a cache registers.
func registerForSweep(c *MemoryCache) {
	sweeperMu.Lock()
	defer sweeperMu.Unlock()
	sweeperCaches = append(sweeperCaches, weak.Make(c))
	if !sweeperRunning {
		sweeperRunning = true
		go runSweeper()
	}
}

func runSweeper() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if sweepOnce() {
			return
		}
	}
}

// sweepOnce upgrades every registered weak pointer, invokes Cleanup on the
// ones still alive, and prunes the dead ones. It reports whether the
// registry is now empty (in which case the caller should stop polling).
func sweepOnce() bool {
	sweeperMu.Lock()
	defer sweeperMu.Unlock()

	live := sweeperCaches[:0]
	for _, wp := range sweeperCaches {
		if c := wp.Value(); c != nil {
			c.Cleanup(context.Background())
			live = append(live, wp)
		}
	}
	sweeperCaches = live

	if len(sweeperCaches) == 0 {
		sweeperRunning = false
		return true
	}
	return false
}
