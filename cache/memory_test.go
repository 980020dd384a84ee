package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greaka/gw2lib/fingerprint"
)

func locFor(t *testing.T, id, lang, authID string) Locator {
	t.Helper()
	return Locator{
		Key:    fingerprint.ForStrings[string](id, lang, authID),
		URL:    "v2/items",
		ID:     id,
		Lang:   lang,
		AuthID: authID,
	}
}

func TestMemoryCache_InsertGetRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	loc := locFor(t, "19721", "", "")

	require.NoError(t, c.Insert(ctx, loc, "longbow of fire", time.Now().Add(time.Minute), false))

	got, ok := Get[string](ctx, c, loc, false)
	require.True(t, ok)
	assert.Equal(t, "longbow of fire", got)
}

func TestMemoryCache_ExpiredEntryIsMiss(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	loc := locFor(t, "19721", "", "")

	require.NoError(t, c.Insert(ctx, loc, "stale", time.Now().Add(-time.Second), false))

	_, ok := c.Get(ctx, loc, false)
	assert.False(t, ok, "an entry past its expiry must be reported absent even before Cleanup runs")
	assert.Equal(t, 0, c.Size(), "the expired entry is removed inline on read")
}

func TestMemoryCache_PartitionIsolation(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	loc := locFor(t, "42", "", "account-A")

	require.NoError(t, c.Insert(ctx, loc, "wallet", time.Now().Add(time.Minute), true))

	require.NoError(t, c.WipeStatic(ctx))
	_, ok := c.Get(ctx, loc, true)
	assert.True(t, ok, "wipe_static must not remove authenticated entries")

	require.NoError(t, c.WipeAuthenticated(ctx))
	_, ok = c.Get(ctx, loc, true)
	assert.False(t, ok, "wipe_authenticated must remove authenticated entries")
}

func TestMemoryCache_Cleanup(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	expired := locFor(t, "1", "", "")
	fresh := locFor(t, "2", "", "")
	require.NoError(t, c.Insert(ctx, expired, "a", time.Now().Add(-time.Minute), false))
	require.NoError(t, c.Insert(ctx, fresh, "b", time.Now().Add(time.Minute), false))

	c.Cleanup(ctx)

	assert.Equal(t, 1, c.Size())
	_, ok := c.Get(ctx, fresh, false)
	assert.True(t, ok)
}

func TestMemoryCache_LanguageScopesKey(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	en := locFor(t, "19721", "en", "")
	de := locFor(t, "19721", "de", "")

	require.NoError(t, c.Insert(ctx, en, "longbow", time.Now().Add(time.Minute), false))

	_, ok := c.Get(ctx, de, false)
	assert.False(t, ok, "a locale-sensitive fingerprint must not collide across languages")
}
