package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/benvon/smart-wardrobe/internal/logger"
	"github.com/benvon/smart-wardrobe/internal/request"
)

// Logging creates logging middleware
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap ResponseWriter to capture status code and size
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				logpkg.Path(r.URL.Path),
				zap.Int("status_code", wrapped.statusCode),
				zap.Int("response_bytes", wrapped.written),
				zap.String("client_ip", request.ClientIP(r)),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			switch {
			case wrapped.statusCode >= 500:
				logger.Error("http_request", fields...)
			case wrapped.statusCode == http.StatusTooManyRequests:
				logger.Warn("http_request", fields...)
			default:
				logger.Info("http_request", fields...)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}
