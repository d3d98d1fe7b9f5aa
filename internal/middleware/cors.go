package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// ParseOrigins splits a comma-separated origin list, trimming whitespace and
// dropping blanks and duplicates. It falls back to http://localhost:3000.
func ParseOrigins(frontendURL string) []string {
	var origins []string
	for _, o := range strings.Split(frontendURL, ",") {
		o = strings.TrimSpace(o)
		if o != "" && !slices.Contains(origins, o) {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

// CORS creates rs/cors middleware allowing the given frontend origins
func CORS(frontendURL string, logger *zap.Logger) func(http.Handler) http.Handler {
	origins := ParseOrigins(frontendURL)
	logger.Info("cors_configured", zap.Strings("allowed_origins", origins))

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         86400,
	})
	return c.Handler
}
