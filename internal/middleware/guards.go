package middleware

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/benvon/smart-wardrobe/internal/models"
)

const (
	// DefaultMaxRequestSize bounds JSON bodies without a per-path limit.
	// A recommendation request carries the whole wardrobe as text.
	DefaultMaxRequestSize int64 = 1 << 20
	// MaxImageRequestSize bounds clothing analysis bodies, which carry one
	// downscaled JPEG as a base64 data URI.
	MaxImageRequestSize int64 = 4 << 20
	// DefaultRequestTimeout bounds a request; AI calls are the slowest path
	DefaultRequestTimeout = 60 * time.Second
)

const timeoutBody = `{"success":false,"error":"Request Timeout"}`

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Success: false, Error: message})
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// MaxRequestSize caps request bodies at def bytes, or at perPath[path] for
// routes that need a different bound. Oversized declared lengths are
// rejected before the handler runs; undeclared ones fail on read.
func MaxRequestSize(def int64, perPath map[string]int64) func(http.Handler) http.Handler {
	if def <= 0 {
		def = DefaultMaxRequestSize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := def
			if n, ok := perPath[r.URL.Path]; ok && n > 0 {
				limit = n
			}
			if r.ContentLength > limit {
				writeError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// ContentType requires application/json on requests that carry a body
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasBody(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			writeError(w, http.StatusBadRequest, "Content-Type header is required")
			return
		}
		if mediaType, _, err := mime.ParseMediaType(ct); err != nil || mediaType != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Timeout bounds handler run time. The request context is cancelled at the
// deadline, so upstream AI and weather calls stop with it.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
