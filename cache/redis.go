package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the cross-process cache backend, for sharing parsed
// responses across multiple instances of a program (or multiple
// processes entirely). Keys follow the layout the spec names:
//
//	gw2lib_{static|auth}_{url}_{lang?}_{authid?}_{id}
//
// TTL is derived from (expiry - now) and handed to Redis directly, so
// Cleanup is a no-op: expiration is native to the store.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing go-redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Insert(ctx context.Context, loc Locator, value any, expiry time.Time, authenticated bool) error {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		// already expired; nothing to store.
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("gw2lib: marshal cache entry: %w", err)
	}
	key := redisKey(loc, authenticated)
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, loc Locator, authenticated bool) (any, bool) {
	key := redisKey(loc, authenticated)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Cleanup is a no-op: Redis expires keys natively via TTL.
func (c *RedisCache) Cleanup(_ context.Context) {}

func (c *RedisCache) WipeStatic(ctx context.Context) error {
	return c.deleteByPattern(ctx, "gw2lib_static_*")
}

func (c *RedisCache) WipeAuthenticated(ctx context.Context) error {
	return c.deleteByPattern(ctx, "gw2lib_auth_*")
}

// deleteByPattern scans and deletes keys in batches, mirroring the
// cursor-driven SCAN/DEL loop the original Redis cache backend uses
// instead of KEYS (which would block the Redis event loop on a large
// keyspace).
func (c *RedisCache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 500 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}

func redisKey(loc Locator, authenticated bool) string {
	var b strings.Builder
	b.WriteString("gw2lib")

	if authenticated {
		b.WriteString("_auth")
	} else {
		b.WriteString("_static")
	}

	b.WriteByte('_')
	b.WriteString(loc.URL)

	if loc.Lang != "" {
		b.WriteByte('_')
		b.WriteString(loc.Lang)
	}
	if authenticated && loc.AuthID != "" {
		b.WriteByte('_')
		b.WriteString(loc.AuthID)
	}
	if loc.ID != "" {
		b.WriteByte('_')
		b.WriteString(loc.ID)
	}

	return b.String()
}
