package transport_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greaka/gw2lib/transport"
)

func TestHTTPTransport_SendsUserAgentAndQuery(t *testing.T) {
	var gotUA, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("v")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := transport.NewHTTPTransport("gw2lib-test/1.0", zerolog.Nop())
	resp, err := tr.Do(context.Background(), transport.Request{
		Method: http.MethodGet,
		URL:    server.URL,
		Query:  map[string][]string{"v": {"2022-01-01"}},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "gw2lib-test/1.0", gotUA)
	assert.Equal(t, "2022-01-01", gotQuery)
}

func TestHTTPTransport_DecompressesGzipBody(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte(`{"id":1}`))
	require.NoError(t, gz.Close())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	tr := transport.NewHTTPTransport("gw2lib-test/1.0", zerolog.Nop())
	resp, err := tr.Do(context.Background(), transport.Request{Method: http.MethodGet, URL: server.URL})
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(body))
}
