package coordinator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greaka/gw2lib/client"
	"github.com/greaka/gw2lib/coordinator"
	"github.com/greaka/gw2lib/internal/testendpoint"
	"github.com/greaka/gw2lib/transport"
)

func TestSingle_CachesPerID(t *testing.T) {
	fake := transport.NewFakeTransport(
		func(req transport.Request) (*transport.Response, error) {
			assert.Contains(t, req.URL, "/v2/items/24")
			return transport.JSONResponse(`{"id":24,"name":"Eternity"}`, 300), nil
		},
	)
	c := client.New("test/1.0").WithTransport(fake)

	v, err := coordinator.Single[testendpoint.Item, int](context.Background(), c, 24)
	require.NoError(t, err)
	assert.Equal(t, "Eternity", v.Name)

	v2, err := coordinator.Single[testendpoint.Item, int](context.Background(), c, 24)
	require.NoError(t, err)
	assert.Equal(t, "Eternity", v2.Name)
	assert.Equal(t, 1, fake.CallCount())
}

func TestTrySingle_MissWithoutIssuingRequest(t *testing.T) {
	fake := transport.NewFakeTransport()
	c := client.New("test/1.0").WithTransport(fake)

	_, ok := coordinator.TrySingle[testendpoint.Item, int](context.Background(), c, 999)
	assert.False(t, ok)
	assert.Equal(t, 0, fake.CallCount())
}

func TestTrySingle_HitAfterSingleWarmsCache(t *testing.T) {
	fake := transport.NewFakeTransport(
		func(transport.Request) (*transport.Response, error) {
			return transport.JSONResponse(`{"id":24,"name":"Eternity"}`, 300), nil
		},
	)
	c := client.New("test/1.0").WithTransport(fake)

	_, err := coordinator.Single[testendpoint.Item, int](context.Background(), c, 24)
	require.NoError(t, err)

	v, ok := coordinator.TrySingle[testendpoint.Item, int](context.Background(), c, 24)
	require.True(t, ok)
	assert.Equal(t, "Eternity", v.Name)
}

func TestSingle_CacheIsScopedPerLanguage(t *testing.T) {
	fake := transport.NewFakeTransport(
		func(transport.Request) (*transport.Response, error) {
			return transport.JSONResponse(`{"id":24,"name":"Eternity"}`, 300), nil
		},
		func(transport.Request) (*transport.Response, error) {
			return transport.JSONResponse(`{"id":24,"name":"Ewigkeit"}`, 300), nil
		},
	)
	en := client.New("test/1.0").WithTransport(fake)
	de := en.WithLanguage("de")

	v, err := coordinator.Single[testendpoint.Item, int](context.Background(), en, 24)
	require.NoError(t, err)
	assert.Equal(t, "Eternity", v.Name)

	// A different lang= is a cache miss even for the same id, since the
	// endpoint is locale-sensitive and the two languages get distinct
	// responses from the server.
	v2, err := coordinator.Single[testendpoint.Item, int](context.Background(), de, 24)
	require.NoError(t, err)
	assert.Equal(t, "Ewigkeit", v2.Name)
	assert.Equal(t, 2, fake.CallCount())

	// Re-requesting "en" is still a cache hit; the "de" fetch didn't
	// evict it.
	v3, err := coordinator.Single[testendpoint.Item, int](context.Background(), en, 24)
	require.NoError(t, err)
	assert.Equal(t, "Eternity", v3.Name)
	assert.Equal(t, 2, fake.CallCount())
}

func TestIDs_CachedUnderItsOwnFingerprint(t *testing.T) {
	fake := transport.NewFakeTransport(
		func(req transport.Request) (*transport.Response, error) {
			_, hasIDs := req.Query["ids"]
			assert.False(t, hasIDs)
			return transport.JSONResponse(`[1,2,3]`, 300), nil
		},
	)
	c := client.New("test/1.0").WithTransport(fake)

	ids, err := coordinator.IDs[testendpoint.Item, int](context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)

	_, err = coordinator.IDs[testendpoint.Item, int](context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.CallCount())
}
