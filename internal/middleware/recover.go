package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Recover turns handler panics into a 500 in the API's error shape. The
// panic value stays in the server log, tagged with the request id when the
// handler had already assigned one.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				requestID := w.Header().Get("X-Request-ID")
				if requestID == "" {
					requestID = r.Header.Get("X-Request-ID")
				}
				logger.Error("panic_recovered",
					zap.Any("panic", v),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", requestID),
					zap.Stack("stack"),
				)
				writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
