package transport

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPTransport is the default Transport, backed by net/http. Every
// request gets a User-Agent, gzip negotiation, and a per-request
// X-Request-Id correlation header logged alongside the response status,
// mirroring the correlation-id-plus-structured-log pattern
// erauner12-toolbridge-api's HTTPClient.Do uses.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

// NewHTTPTransport creates a transport with a sane default timeout. Pass
// a zerolog.Logger with the desired sinks/level already configured; use
// zerolog.Nop() to silence it entirely.
func NewHTTPTransport(userAgent string, logger zerolog.Logger) *HTTPTransport {
	return &HTTPTransport{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: userAgent,
		logger:    logger,
	}
}

func (t *HTTPTransport) Do(ctx context.Context, req Request) (*Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept-Encoding", "gzip")

	correlationID := uuid.New().String()
	httpReq.Header.Set("X-Request-Id", correlationID)

	log := t.logger.With().
		Str("correlation_id", correlationID).
		Str("method", req.Method).
		Str("url", u.String()).
		Logger()
	log.Debug().Msg("sending request")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		log.Warn().Err(err).Msg("request failed")
		return nil, err
	}

	log.Debug().Int("status", resp.StatusCode).Msg("received response")

	body := resp.Body
	// net/http only auto-decompresses gzip when it set Accept-Encoding
	// itself; since this transport sets the header explicitly (per the
	// library's declared wire contract), a gzip-encoded response has to
	// be unwrapped by hand.
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		body = &gzipBody{Reader: gz, underlying: resp.Body}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// gzipBody closes both the gzip reader and the underlying network
// connection's body when the caller is done reading.
type gzipBody struct {
	*gzip.Reader
	underlying interface{ Close() error }
}

func (b *gzipBody) Close() error {
	_ = b.Reader.Close()
	return b.underlying.Close()
}
