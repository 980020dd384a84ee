// Package errors defines the fault taxonomy produced by the gw2lib
// coordination engine: sentinel errors for the zero-data cases and typed
// errors for the cases that carry a payload, following the
// errors.Is/errors.As conventions used throughout this codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no additional data.
var (
	// ErrUnsupportedEndpointQuery is returned when the caller invokes
	// GetAllByIDsAll on an endpoint that doesn't support ids=all, or
	// GetAllByPaging on an endpoint that isn't paged.
	ErrUnsupportedEndpointQuery = errors.New("gw2lib: unsupported query for this endpoint")

	// ErrNotAuthenticated is returned when an authenticated endpoint is
	// requested through a client with no API key configured.
	ErrNotAuthenticated = errors.New("gw2lib: endpoint requires authentication")

	// ErrRateLimiterCrashed is returned when the rate limiter's backing
	// infrastructure (e.g. a Redis connection) is unavailable.
	ErrRateLimiterCrashed = errors.New("gw2lib: rate limiter unavailable")

	// ErrInflightReceiveFailed is returned to a subscriber when the
	// producing caller gave up without publishing a value. Callers should
	// treat this as "re-check the cache, then retry as if no slot existed".
	ErrInflightReceiveFailed = errors.New("gw2lib: inflight request closed without a result")
)

// RateLimiterBucketExceededError is returned when a caller requests more
// tokens than the bucket's burst capacity; it can never succeed.
type RateLimiterBucketExceededError struct {
	Requested int
	Burst     int
}

func (e *RateLimiterBucketExceededError) Error() string {
	return fmt.Sprintf("gw2lib: requested %d tokens exceeds bucket burst of %d", e.Requested, e.Burst)
}

// RequestFailedError wraps a transport-level failure (connection, TLS,
// context cancellation). The caller may retry.
type RequestFailedError struct {
	Err error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("gw2lib: request failed: %v", e.Err)
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// InvalidJSONResponseError is returned when the response body fails to
// parse as the endpoint's declared result type.
type InvalidJSONResponseError struct {
	Err error
}

func (e *InvalidJSONResponseError) Error() string {
	return fmt.Sprintf("gw2lib: invalid json response: %v", e.Err)
}

func (e *InvalidJSONResponseError) Unwrap() error {
	return e.Err
}

// APIErrorKind classifies the failure kinds the gw2 API reports via HTTP
// status and body.
type APIErrorKind int

const (
	// KindOther is any non-2xx status not otherwise classified.
	KindOther APIErrorKind = iota
	// KindUnauthorized corresponds to HTTP 401, or 400 with a body of
	// "invalid key" / "Invalid access token".
	KindUnauthorized
	// KindMissingGameAccess corresponds to HTTP 400 with the exact body
	// "account does not have game access".
	KindMissingGameAccess
	// KindRateLimited corresponds to HTTP 429. The rate limiter's penalty
	// has already been applied by the time this error is constructed.
	KindRateLimited
)

func (k APIErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindMissingGameAccess:
		return "missing_game_access"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "other"
	}
}

// APIError is the classified form of a non-2xx response from the gw2 API.
type APIError struct {
	Kind       APIErrorKind
	StatusCode int
	Text       string
}

func (e *APIError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("gw2lib: api error %d (%s): %s", e.StatusCode, e.Kind, e.Text)
	}
	return fmt.Sprintf("gw2lib: api error %d (%s)", e.StatusCode, e.Kind)
}

// Is allows errors.Is(err, &APIError{Kind: KindUnauthorized}) style checks
// that only compare the classification, not the status/text payload.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.StatusCode != 0 && t.StatusCode != e.StatusCode {
		return false
	}
	return true
}
