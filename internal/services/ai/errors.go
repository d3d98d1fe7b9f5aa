package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
)

var (
	// ErrServerConfiguration indicates the AI backend rejected our credentials (HTTP 401).
	// It is a deployment problem, never a user-facing auth failure.
	ErrServerConfiguration = errors.New("AI service is not configured correctly")
	// ErrNotConfigured indicates no AI provider is available (missing API key)
	ErrNotConfigured = errors.New("AI service is not configured")
	// ErrInvalidResponseShape indicates the service replied with JSON of an unexpected shape
	ErrInvalidResponseShape = errors.New("invalid response shape")
	// ErrEmptyContent indicates the completion carried no content
	ErrEmptyContent = errors.New("empty response content")
	// ErrQuotaExceeded indicates the API quota was exceeded
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// DefaultRetryAfter is reported for rate limits that do not say when to retry
const DefaultRetryAfter = 60 * time.Second

// APIError represents a non-2xx reply from an AI backend
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	IsPermanent bool // true for quota errors
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// RateLimitError is the retry-later condition (HTTP 429). The status code is propagated unchanged.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (status %d), retry after %s", e.StatusCode, e.RetryAfter)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.IsPermanent
	}
	return false
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}
	return false
}

// StatusCode returns the HTTP status an error should be reported with at the API boundary
func StatusCode(err error) int {
	var rlErr *RateLimitError
	var apiErr *APIError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &rlErr):
		return rlErr.StatusCode
	case errors.Is(err, ErrServerConfiguration):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInvalidResponseShape), errors.Is(err, ErrEmptyContent):
		return http.StatusBadGateway
	case errors.As(err, &apiErr):
		if apiErr.IsPermanent {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ClassifyStatus converts a non-2xx HTTP status into the typed failure for it.
// retryAfter is the raw Retry-After header value, if any.
func ClassifyStatus(status int, message, retryAfter string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return ErrServerConfiguration
	case status == http.StatusTooManyRequests:
		return &RateLimitError{
			StatusCode: status,
			RetryAfter: ParseRetryAfter(retryAfter),
			Message:    message,
		}
	default:
		return &APIError{
			StatusCode: status,
			Message:    message,
			Type:       http.StatusText(status),
		}
	}
}

// ParseRetryAfter parses a Retry-After header given in seconds, falling back to DefaultRetryAfter
func ParseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultRetryAfter
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return DefaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

// ExtractAPIError converts an OpenAI SDK error into the package's typed failures.
// It returns nil when err is not an API error.
func ExtractAPIError(err error) error {
	if err == nil {
		return nil
	}

	var oaErr *openai.Error
	if !errors.As(err, &oaErr) {
		return nil
	}

	switch oaErr.StatusCode {
	case http.StatusUnauthorized:
		return ErrServerConfiguration
	case http.StatusTooManyRequests:
		if oaErr.Code == "insufficient_quota" {
			return &APIError{
				StatusCode:  oaErr.StatusCode,
				Message:     oaErr.Message,
				Type:        oaErr.Type,
				Code:        oaErr.Code,
				IsPermanent: true,
			}
		}
		retryAfter := ""
		if oaErr.Response != nil {
			retryAfter = oaErr.Response.Header.Get("Retry-After")
		}
		return &RateLimitError{
			StatusCode: oaErr.StatusCode,
			RetryAfter: ParseRetryAfter(retryAfter),
			Message:    oaErr.Message,
		}
	default:
		return &APIError{
			StatusCode: oaErr.StatusCode,
			Message:    oaErr.Message,
			Type:       oaErr.Type,
			Code:       oaErr.Code,
		}
	}
}
