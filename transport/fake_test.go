package transport_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greaka/gw2lib/transport"
)

func TestFakeTransport_ServesHandlersInOrderAndRecordsCalls(t *testing.T) {
	f := transport.NewFakeTransport(
		func(transport.Request) (*transport.Response, error) {
			return transport.JSONResponse(`{"n":1}`, 0), nil
		},
		func(transport.Request) (*transport.Response, error) {
			return transport.JSONResponse(`{"n":2}`, 0), nil
		},
	)

	resp1, err := f.Do(context.Background(), transport.Request{URL: "https://x/1"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp1.StatusCode)

	resp2, err := f.Do(context.Background(), transport.Request{URL: "https://x/2"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp2.StatusCode)

	assert.Equal(t, 2, f.CallCount())
	assert.Equal(t, "https://x/1", f.Calls()[0].URL)
	assert.Equal(t, "https://x/2", f.Calls()[1].URL)
}

func TestFakeTransport_PanicsOnUnscriptedCall(t *testing.T) {
	f := transport.NewFakeTransport(
		func(transport.Request) (*transport.Response, error) {
			return transport.JSONResponse(`{}`, 0), nil
		},
	)
	_, _ = f.Do(context.Background(), transport.Request{})
	assert.Panics(t, func() {
		_, _ = f.Do(context.Background(), transport.Request{})
	})
}

func TestJSONResponseWithTotal_SetsResultTotalHeader(t *testing.T) {
	resp := transport.JSONResponseWithTotal(`[]`, 42, 60)
	assert.Equal(t, "42", resp.Header.Get("X-Result-Total"))
	assert.Equal(t, "max-age=60", resp.Header.Get("Cache-Control"))
}
