package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/models"
)

const (
	// DefaultBaseURL is the public Open-Meteo forecast API
	DefaultBaseURL = "https://api.open-meteo.com"

	currentFields    = "temperature_2m,apparent_temperature,relative_humidity_2m,precipitation_probability,weather_code,wind_speed_10m"
	maxResponseBytes = 1 << 20
)

type forecastResponse struct {
	Current *struct {
		Temperature              float64  `json:"temperature_2m"`
		ApparentTemperature      float64  `json:"apparent_temperature"`
		RelativeHumidity         float64  `json:"relative_humidity_2m"`
		PrecipitationProbability *float64 `json:"precipitation_probability"`
		WeatherCode              int      `json:"weather_code"`
		WindSpeed                float64  `json:"wind_speed_10m"`
	} `json:"current"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// OpenMeteoClient fetches current conditions from Open-Meteo
type OpenMeteoClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenMeteoClient creates a client against baseURL (DefaultBaseURL when empty)
func NewOpenMeteoClient(baseURL string, timeout time.Duration, logger *zap.Logger) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenMeteoClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Current implements Provider
func (c *OpenMeteoClient) Current(ctx context.Context, lat, lon float64) (*models.WeatherData, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current", currentFields)
	q.Set("wind_speed_unit", "kmh")
	q.Set("temperature_unit", "celsius")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read weather response: %w", err)
	}

	c.logger.Debug("weather_fetched",
		zap.Int("status", resp.StatusCode),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)

	var fr forecastResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, fmt.Errorf("failed to decode weather response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || fr.Error {
		return nil, fmt.Errorf("weather service returned status %d: %s", resp.StatusCode, fr.Reason)
	}
	if fr.Current == nil {
		return nil, fmt.Errorf("weather response has no current conditions")
	}

	cur := fr.Current
	w := &models.WeatherData{
		Temperature: round1(cur.Temperature),
		FeelsLike:   round1(cur.ApparentTemperature),
		Condition:   Condition(cur.WeatherCode),
		Humidity:    int(math.Round(cur.RelativeHumidity)),
		WindSpeed:   round1(cur.WindSpeed),
	}
	if cur.PrecipitationProbability != nil {
		w.Precipitation = int(math.Round(*cur.PrecipitationProbability))
	}
	return w, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
