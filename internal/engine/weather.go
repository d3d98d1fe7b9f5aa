package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/models"
)

// ErrLocationUnavailable is returned by a Locator that cannot resolve a position
var ErrLocationUnavailable = errors.New("location unavailable")

// Locator resolves the device position when the profile has no stored location
type Locator interface {
	Locate(ctx context.Context) (models.Location, error)
}

// NoLocator never resolves a position
type NoLocator struct{}

// Locate always fails with ErrLocationUnavailable
func (NoLocator) Locate(context.Context) (models.Location, error) {
	return models.Location{}, ErrLocationUnavailable
}

// StaticLocator returns a fixed, configured device position
type StaticLocator struct {
	Latitude  *float64
	Longitude *float64
}

// Locate returns the configured position or ErrLocationUnavailable when unset
func (l StaticLocator) Locate(context.Context) (models.Location, error) {
	if l.Latitude == nil || l.Longitude == nil {
		return models.Location{}, ErrLocationUnavailable
	}
	return models.Location{Latitude: *l.Latitude, Longitude: *l.Longitude, Name: "device"}, nil
}

// FetchWeather refreshes the weather sub-state. A fresh cache entry is used
// as-is; otherwise the location is resolved (profile first, then the device
// locator) and the weather service is called. Any failure sets the weather
// error and clears the weather; FetchWeather never returns an error.
func (e *Engine) FetchWeather(ctx context.Context) {
	if e.weatherCache != nil {
		if w, cachedAt, ok := e.weatherCache.Get(ctx); ok {
			e.logger.Debug("weather_cache_hit", zap.Time("cached_at", cachedAt))
			e.store.SetWeather(*w, cachedAt)
			return
		}
	}

	w, err := e.fetchWeather(ctx)
	if err != nil {
		e.logger.Warn("weather_fetch_failed", zap.Error(err))
		e.store.SetWeatherError(err.Error())
		return
	}

	fetchedAt := e.now()
	if e.weatherCache != nil {
		at, err := e.weatherCache.Put(ctx, *w)
		if err != nil {
			e.logger.Warn("weather_cache_write_failed", zap.Error(err))
		} else {
			fetchedAt = at
		}
	}
	e.store.SetWeather(*w, fetchedAt)
}

func (e *Engine) fetchWeather(ctx context.Context) (*models.WeatherData, error) {
	if e.weather == nil {
		return nil, errors.New("weather service not configured")
	}

	loc := e.store.Snapshot().Profile.Location
	if loc == nil {
		l, err := e.locator.Locate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve location: %w", err)
		}
		loc = &l
	}

	resp, err := e.weather.Weather(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, fmt.Errorf("weather service failed: %w", err)
	}
	if !resp.Success || resp.Weather == nil {
		msg := resp.Error
		if msg == "" {
			msg = "no weather data returned"
		}
		return nil, fmt.Errorf("weather service failed: %s", msg)
	}
	return resp.Weather, nil
}
