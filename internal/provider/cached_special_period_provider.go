package provider

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/pkg/logger"
)

const (
	// Cache key prefix
	specialPeriodKeyPrefix = "special_periods:"

	// Default TTL for the special period list
	specialPeriodCacheTTL = 5 * time.Minute
)

// PeriodCache is the subset of the Redis client used for caching.
// *pkg/redis.Client satisfies it.
type PeriodCache interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// CachedSpecialPeriodProvider wraps SpecialPeriodProvider with Redis caching
type CachedSpecialPeriodProvider struct {
	provider SpecialPeriodProvider
	cache    PeriodCache
	ttl      time.Duration
}

// NewCachedSpecialPeriodProvider creates a new CachedSpecialPeriodProvider
func NewCachedSpecialPeriodProvider(provider SpecialPeriodProvider, cache PeriodCache, ttl time.Duration) *CachedSpecialPeriodProvider {
	if ttl <= 0 {
		ttl = specialPeriodCacheTTL
	}
	return &CachedSpecialPeriodProvider{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
	}
}

// GetActive serves the list from cache, falling back to the provider.
// Cache failures never fail the read.
func (p *CachedSpecialPeriodProvider) GetActive(ctx context.Context, filter SpecialPeriodFilter) ([]*domain.SpecialPeriod, error) {
	cacheKey := specialPeriodKey(filter)

	// Try cache first
	cached, err := p.cache.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var periods []*domain.SpecialPeriod
		if err := json.Unmarshal([]byte(cached), &periods); err == nil {
			return periods, nil
		}
	} else if err != nil && err != goredis.Nil {
		logger.Get().Warn("special period cache read failed", zap.String("key", cacheKey), zap.Error(err))
	}

	// Cache miss - read through
	periods, err := p.provider.GetActive(ctx, filter)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(periods); err == nil {
		if err := p.cache.Set(ctx, cacheKey, data, p.ttl).Err(); err != nil {
			logger.Get().Warn("special period cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return periods, nil
}

func specialPeriodKey(filter SpecialPeriodFilter) string {
	switch {
	case filter.IsActive == nil:
		return specialPeriodKeyPrefix + "all"
	case *filter.IsActive:
		return specialPeriodKeyPrefix + "active"
	default:
		return specialPeriodKeyPrefix + "inactive"
	}
}
