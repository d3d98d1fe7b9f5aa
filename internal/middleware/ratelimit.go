package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/request"
)

// DefaultRate is the per-client request rate when none is configured
const DefaultRate = "30-M"

// RateLimit returns middleware that limits requests per client IP. Counters
// live in Redis when a client is given so several server instances share
// them; otherwise they are kept in process memory.
func RateLimit(redisClient *redis.Client, rateStr string, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rateStr == "" {
		rateStr = DefaultRate
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rateStr, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "wardrobe_limiter"})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memorystore.NewStore()
	}

	instance := limiter.New(store, rate)
	return func(next http.Handler) http.Handler {
		mw := stdlibmw.NewMiddleware(instance,
			stdlibmw.WithKeyGetter(request.ClientIP),
			stdlibmw.WithLimitReachedHandler(limitReached),
			stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				// Fail open when the limiter store is unreachable
				logger.Warn("rate_limiter_error", zap.Error(err))
				next.ServeHTTP(w, r)
			}),
		)
		return mw.Handler(next)
	}, nil
}

// limitReached answers 429 in the API's error shape with a Retry-After hint
func limitReached(w http.ResponseWriter, r *http.Request) {
	retryAfter := 1
	if reset, err := strconv.ParseInt(w.Header().Get("X-RateLimit-Reset"), 10, 64); err == nil {
		retryAfter = max(1, int(time.Until(time.Unix(reset, 0)).Seconds()))
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{
		Success:    false,
		Error:      "Too Many Requests",
		RetryAfter: retryAfter,
	})
}
