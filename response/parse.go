// Package response implements the single place HTTP status codes and
// bodies turn into either a typed error or a (cache-expiry, value) pair,
// per the classification table in the gw2 API client's error taxonomy.
package response

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	gw2errors "github.com/greaka/gw2lib/errors"
	"github.com/greaka/gw2lib/ratelimit"
	"github.com/greaka/gw2lib/transport"
)

const defaultCacheSeconds = 300

// Parse classifies resp and, on success, decodes its body into a T and
// computes the cache expiry to store it under. overrideTTL, when
// non-zero, wins over whatever Cache-Control says (the cached-decorator's
// forced lifetime). On any non-2xx status, Parse first applies the
// classification's side effect (429 penalizes limiter) and then returns
// the classified error; T's zero value is returned alongside it.
func Parse[T any](ctx context.Context, resp *transport.Response, overrideTTL time.Duration, limiter ratelimit.Limiter) (time.Time, T, error) {
	var zero T

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		expiry := cacheExpiry(resp, overrideTTL)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return time.Time{}, zero, &gw2errors.RequestFailedError{Err: err}
		}
		var value T
		if err := json.Unmarshal(body, &value); err != nil {
			return time.Time{}, zero, &gw2errors.InvalidJSONResponseError{Err: err}
		}
		return expiry, value, nil
	}

	text := readText(resp)
	apiErr := classify(resp.StatusCode, text)

	if apiErr.Kind == gw2errors.KindRateLimited && limiter != nil {
		// Penalize is best-effort: a failure here doesn't change the
		// fact that the server already rejected the request.
		_ = limiter.Penalize(ctx)
	}

	return time.Time{}, zero, apiErr
}

func readText(resp *transport.Response) string {
	if resp.Body == nil {
		return ""
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

// classify maps a non-2xx status and body text to the gw2 API's four
// error kinds, per the status/text table: 401 is always Unauthorized;
// 400 with one of two exact bodies is Unauthorized or MissingGameAccess;
// 429 is RateLimited; everything else is Other.
func classify(status int, text string) *gw2errors.APIError {
	switch {
	case status == 401:
		return &gw2errors.APIError{Kind: gw2errors.KindUnauthorized, StatusCode: status, Text: text}
	case status == 400 && (text == "invalid key" || text == "Invalid access token"):
		return &gw2errors.APIError{Kind: gw2errors.KindUnauthorized, StatusCode: status, Text: text}
	case status == 400 && text == "account does not have game access":
		return &gw2errors.APIError{Kind: gw2errors.KindMissingGameAccess, StatusCode: status, Text: text}
	case status == 429:
		return &gw2errors.APIError{Kind: gw2errors.KindRateLimited, StatusCode: status, Text: text}
	default:
		return &gw2errors.APIError{Kind: gw2errors.KindOther, StatusCode: status, Text: text}
	}
}

// cacheExpiry picks overrideTTL when set, else parses Cache-Control:
// max-age=N, defaulting to 300 seconds when the header is missing or
// unparseable.
func cacheExpiry(resp *transport.Response, overrideTTL time.Duration) time.Time {
	if overrideTTL > 0 {
		return time.Now().Add(overrideTTL)
	}
	return time.Now().Add(time.Duration(maxAgeSeconds(resp)) * time.Second)
}

func maxAgeSeconds(resp *transport.Response) int {
	cc := resp.Header.Get("Cache-Control")
	if cc == "" {
		return defaultCacheSeconds
	}
	for _, directive := range strings.Split(cc, ",") {
		directive = strings.TrimSpace(directive)
		name, value, ok := strings.Cut(directive, "=")
		if !ok || strings.TrimSpace(name) != "max-age" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		return n
	}
	return defaultCacheSeconds
}

// ResultTotal reads X-Result-Total for bulk/paged responses, defaulting
// to 0 when absent or unparseable.
func ResultTotal(resp *transport.Response) int {
	v := resp.Header.Get("X-Result-Total")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
