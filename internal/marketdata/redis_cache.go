package marketdata

import (
	"context"
	"time"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/pkg/redis"
)

var _ contracts.PriceStore = (*RedisCache)(nil)

// RedisCache is a hot cache for series shared between processes
type RedisCache struct {
	cache *redis.Cache
	ttl   time.Duration
}

// NewRedisCache wraps a redis cache helper. A disabled client always misses.
func NewRedisCache(cache *redis.Cache, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &RedisCache{cache: cache, ttl: ttl}
}

func cacheKey(key contracts.SeriesKey) string {
	return redis.SeriesKey(key.Symbol, key.Interval,
		key.Start.Format("2006-01-02"), key.End.Format("2006-01-02"))
}

// Load returns the cached series if present
func (c *RedisCache) Load(ctx context.Context, key contracts.SeriesKey) (contracts.PriceSeries, bool, error) {
	var series contracts.PriceSeries
	found, err := c.cache.Get(ctx, cacheKey(key), &series)
	if err != nil || !found {
		return nil, false, err
	}
	return series, true, nil
}

// Save caches the series for the configured TTL
func (c *RedisCache) Save(ctx context.Context, key contracts.SeriesKey, series contracts.PriceSeries) error {
	return c.cache.Set(ctx, cacheKey(key), series, c.ttl)
}
