package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/models"
)

// DefaultCacheTTL is how long the server reuses an observation for a location
const DefaultCacheTTL = 10 * time.Minute

// RedisClient is the subset of go-redis used by the cache
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedProvider wraps a Provider with a Redis cache keyed by the coordinate
// rounded to two decimals (about 1 km). Cache failures are logged and skipped.
type CachedProvider struct {
	next   Provider
	redis  RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider creates a caching provider
func NewCachedProvider(next Provider, client RedisClient, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{next: next, redis: client, ttl: ttl, logger: logger}
}

// CacheKey returns the Redis key for a coordinate
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("weather:%.2f:%.2f", lat, lon)
}

// Current implements Provider
func (p *CachedProvider) Current(ctx context.Context, lat, lon float64) (*models.WeatherData, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	key := CacheKey(lat, lon)

	raw, err := p.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var w models.WeatherData
		if jerr := json.Unmarshal(raw, &w); jerr == nil {
			p.logger.Debug("weather_cache_hit", zap.String("key", key))
			return &w, nil
		}
		p.logger.Warn("weather_cache_corrupt", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		p.logger.Warn("weather_cache_read_failed", zap.String("key", key), zap.Error(err))
	}

	w, err := p.next.Current(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(w)
	if err == nil {
		err = p.redis.Set(ctx, key, data, p.ttl).Err()
	}
	if err != nil {
		p.logger.Warn("weather_cache_write_failed", zap.String("key", key), zap.Error(err))
	}
	return w, nil
}
