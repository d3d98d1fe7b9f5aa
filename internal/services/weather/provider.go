// Package weather resolves current conditions for a coordinate from
// Open-Meteo, optionally through a shared Redis cache.
package weather

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/smart-wardrobe/internal/models"
)

// ErrInvalidCoordinates is returned for latitude/longitude outside the valid range
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Provider returns current conditions for a coordinate
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (*models.WeatherData, error)
}

// ValidateCoordinates checks lat is within [-90, 90] and lon within [-180, 180]
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: lat=%g lon=%g", ErrInvalidCoordinates, lat, lon)
	}
	return nil
}

// Condition maps a WMO weather interpretation code to a short description
func Condition(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code == 1:
		return "Mainly clear"
	case code == 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code >= 95 && code <= 99:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
