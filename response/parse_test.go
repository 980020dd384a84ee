package response

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gw2errors "github.com/greaka/gw2lib/errors"
	"github.com/greaka/gw2lib/ratelimit"
	"github.com/greaka/gw2lib/transport"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestParse_SuccessUsesCacheControlMaxAge(t *testing.T) {
	resp := transport.JSONResponse(`{"id":1,"name":"longbow"}`, 120)
	expiry, value, err := Parse[item](context.Background(), resp, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, item{ID: 1, Name: "longbow"}, value)
	assert.WithinDuration(t, time.Now().Add(120*time.Second), expiry, 2*time.Second)
}

func TestParse_SuccessDefaultsTo300sWithoutHeader(t *testing.T) {
	resp := transport.JSONResponse(`{"id":1,"name":"longbow"}`, 0)
	expiry, _, err := Parse[item](context.Background(), resp, 0, nil)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(defaultCacheSeconds*time.Second), expiry, 2*time.Second)
}

func TestParse_OverrideTTLWinsOverHeader(t *testing.T) {
	resp := transport.JSONResponse(`{"id":1,"name":"longbow"}`, 120)
	expiry, _, err := Parse[item](context.Background(), resp, time.Hour, nil)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 2*time.Second)
}

func TestParse_401IsUnauthorized(t *testing.T) {
	resp := transport.StatusResponse(401, "")
	_, _, err := Parse[item](context.Background(), resp, 0, nil)
	var apiErr *gw2errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, gw2errors.KindUnauthorized, apiErr.Kind)
}

func TestParse_400InvalidKeyIsUnauthorized(t *testing.T) {
	resp := transport.StatusResponse(400, "invalid key")
	_, _, err := Parse[item](context.Background(), resp, 0, nil)
	assert.ErrorIs(t, err, &gw2errors.APIError{Kind: gw2errors.KindUnauthorized})
}

func TestParse_400MissingGameAccess(t *testing.T) {
	resp := transport.StatusResponse(400, "account does not have game access")
	_, _, err := Parse[item](context.Background(), resp, 0, nil)
	assert.ErrorIs(t, err, &gw2errors.APIError{Kind: gw2errors.KindMissingGameAccess})
}

func TestParse_400OtherTextIsOther(t *testing.T) {
	resp := transport.StatusResponse(400, "something else entirely")
	_, _, err := Parse[item](context.Background(), resp, 0, nil)
	assert.ErrorIs(t, err, &gw2errors.APIError{Kind: gw2errors.KindOther})
}

func TestParse_429PenalizesLimiterAndReturnsRateLimited(t *testing.T) {
	limiter := ratelimit.NewBucketLimiter(1, 600)
	resp := transport.StatusResponse(429, "")

	before, err := limiter.Take(context.Background(), 1)
	require.NoError(t, err)
	before.Release(context.Background())

	_, _, err = Parse[item](context.Background(), resp, 0, limiter)
	assert.ErrorIs(t, err, &gw2errors.APIError{Kind: gw2errors.KindRateLimited})

	start := time.Now()
	permit, err := limiter.Take(context.Background(), 1)
	require.NoError(t, err)
	permit.Release(context.Background())
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond, "penalize must have delayed the next take")
}

func TestResultTotal_ParsesHeader(t *testing.T) {
	resp := transport.JSONResponseWithTotal(`[]`, 42, 300)
	assert.Equal(t, 42, ResultTotal(resp))
}

func TestResultTotal_DefaultsToZero(t *testing.T) {
	resp := transport.JSONResponse(`[]`, 300)
	assert.Equal(t, 0, ResultTotal(resp))
}
