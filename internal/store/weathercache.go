package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-wardrobe/internal/models"
)

const (
	// WeatherCacheKey is the blob key of the weather cache
	WeatherCacheKey = "weather-cache"
	// DefaultWeatherTTL is how long a cached observation stays fresh
	DefaultWeatherTTL = 30 * time.Minute
)

type cachedWeather struct {
	Weather  models.WeatherData `json:"weather"`
	CachedAt time.Time          `json:"cachedAt"`
}

// WeatherCache is the separately keyed weather blob. Freshness depends on
// retrieval time only, not on location.
type WeatherCache struct {
	blobs BlobStore
	ttl   time.Duration
	now   func() time.Time
}

// NewWeatherCache creates a weather cache over blobs
func NewWeatherCache(blobs BlobStore, ttl time.Duration) *WeatherCache {
	if ttl <= 0 {
		ttl = DefaultWeatherTTL
	}
	return &WeatherCache{blobs: blobs, ttl: ttl, now: time.Now}
}

// Get returns the cached weather when it is fresh: now - cachedAt < ttl
func (c *WeatherCache) Get(ctx context.Context) (*models.WeatherData, time.Time, bool) {
	data, err := c.blobs.Get(ctx, WeatherCacheKey)
	if err != nil {
		return nil, time.Time{}, false
	}
	var cached cachedWeather
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, time.Time{}, false
	}
	if c.now().Sub(cached.CachedAt) >= c.ttl {
		return nil, cached.CachedAt, false
	}
	w := cached.Weather
	return &w, cached.CachedAt, true
}

// Put writes w through to the cache stamped with the current time
func (c *WeatherCache) Put(ctx context.Context, w models.WeatherData) (time.Time, error) {
	at := c.now()
	data, err := json.Marshal(cachedWeather{Weather: w, CachedAt: at})
	if err != nil {
		return at, fmt.Errorf("failed to encode weather cache: %w", err)
	}
	if err := c.blobs.Put(ctx, WeatherCacheKey, data); err != nil {
		return at, fmt.Errorf("failed to write weather cache: %w", err)
	}
	return at, nil
}

// Clear removes the cached observation
func (c *WeatherCache) Clear(ctx context.Context) error {
	if err := c.blobs.Delete(ctx, WeatherCacheKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to clear weather cache: %w", err)
	}
	return nil
}
