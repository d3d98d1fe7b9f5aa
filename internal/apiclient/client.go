// Package apiclient talks to the smart-wardrobe API server, which fronts the
// clothing analysis, outfit recommendation and weather services.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/logger"
	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/services/ai"
)

const (
	// DefaultTimeout bounds every call to the API server
	DefaultTimeout = 45 * time.Second
	// maxResponseBytes caps response bodies read from the server
	maxResponseBytes = 2 << 20
)

// Client is an HTTP client for the API server
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the server at baseURL
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// AnalyzeClothing sends a compressed image for classification
func (c *Client) AnalyzeClothing(ctx context.Context, imageDataURI string, preferences map[models.StyleTag]int) (*models.AnalyzeClothingResponse, error) {
	var resp models.AnalyzeClothingResponse
	err := c.do(ctx, http.MethodPost, "/api/analyze-clothing", &models.AnalyzeClothingRequest{
		Image:           imageDataURI,
		UserPreferences: preferences,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecommendOutfits asks the recommendation service for outfits.
// Shape validation of the reply is left to the caller.
func (c *Client) RecommendOutfits(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error) {
	var resp models.RecommendationResponse
	if err := c.do(ctx, http.MethodPost, "/api/recommend-outfits", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Weather fetches current conditions for a coordinate
func (c *Client) Weather(ctx context.Context, lat, lon float64) (*models.WeatherResponse, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))

	var resp models.WeatherResponse
	if err := c.do(ctx, http.MethodGet, "/api/weather?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api_request_failed",
			zap.String("method", method),
			logger.Path(path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api_request_completed",
		zap.String("method", method),
		logger.Path(path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody models.ErrorResponse
		_ = json.Unmarshal(data, &errBody)
		return ai.ClassifyStatus(resp.StatusCode, errBody.Error, resp.Header.Get("Retry-After"))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrInvalidResponseShape, err)
	}
	return nil
}
