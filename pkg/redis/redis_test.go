package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/algosim/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")

	allowed, remaining, err := limiter.Allow(context.Background(), YahooRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, YahooRateLimit.Limit, remaining)

	assert.NoError(t, limiter.Wait(context.Background(), NaverRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", TTLShort))

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestSeriesKey(t *testing.T) {
	assert.Equal(t, "series:AAPL:1d:2020-01-01:2021-01-01",
		SeriesKey("aapl", "1d", "2020-01-01", "2021-01-01"))
}

func TestProviderRateLimit(t *testing.T) {
	assert.Equal(t, NaverRateLimit, ProviderRateLimit("naver"))
	assert.Equal(t, YahooRateLimit, ProviderRateLimit("yahoo"))
	assert.Equal(t, YahooRateLimit, ProviderRateLimit("unknown"))
}
