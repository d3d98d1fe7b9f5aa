package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/config"
	"github.com/benvon/smart-wardrobe/internal/database"
	"github.com/benvon/smart-wardrobe/internal/handlers"
	"github.com/benvon/smart-wardrobe/internal/logger"
	"github.com/benvon/smart-wardrobe/internal/middleware"
	"github.com/benvon/smart-wardrobe/internal/services/ai"
	"github.com/benvon/smart-wardrobe/internal/services/weather"
	"github.com/benvon/smart-wardrobe/internal/telemetry"
)

const version = "1.0.0"

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	devFlag := flag.Bool("dev", false, "Use human-readable console logs")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	newLogger := logger.NewProductionLogger
	if *devFlag {
		newLogger = logger.NewDevelopmentLogger
	}
	zapLogger, err := newLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("redis_configured", cfg.RedisURL != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	// Redis backs the rate limiter and the weather cache when configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("failed_to_connect_to_redis_using_memory_limiter", zap.Error(err))
			redisClient = nil
		} else {
			zapLogger.Info("connected_to_redis")
			defer func() {
				if err := redisClient.Close(); err != nil {
					zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
				}
			}()
		}
	}

	aiProvider, err := createAIProvider(cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
		aiProvider = nil
	}

	var weatherProvider weather.Provider = weather.NewOpenMeteoClient(cfg.WeatherBaseURL, 10*time.Second, zapLogger)
	if redisClient != nil {
		weatherProvider = weather.NewCachedProvider(weatherProvider, redisClient, cfg.WeatherCacheTTL, zapLogger)
	}

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	healthChecker := handlers.NewHealthChecker()
	healthChecker.AddOptionalCheck("ai", func(context.Context) error {
		if aiProvider == nil {
			return ai.ErrNotConfigured
		}
		return nil
	})
	if redisClient != nil {
		healthChecker.AddOptionalCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	r := newRouter(cfg, routerDeps{
		logger:    zapLogger,
		ai:        handlers.NewAIHandler(aiProvider, zapLogger),
		weather:   handlers.NewWeatherHandler(weatherProvider, zapLogger),
		health:    healthChecker,
		rateLimit: rateLimitMW,
	})

	// Setup server
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

type routerDeps struct {
	logger    *zap.Logger
	ai        *handlers.AIHandler
	weather   *handlers.WeatherHandler
	health    *handlers.HealthChecker
	rateLimit func(http.Handler) http.Handler
}

// newRouter assembles middleware and routes.
// In gorilla/mux, middleware registered first is the outermost wrapper.
func newRouter(cfg *config.Config, deps routerDeps) *mux.Router {
	r := mux.NewRouter()

	// 0. OpenTelemetry tracing (if enabled)
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	// 1. Security headers (should be set on all responses)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	// 2. CORS, answering preflights before anything else
	r.Use(middleware.CORS(cfg.FrontendURL, deps.logger))
	// 3. Request size limits (protects against DoS)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, map[string]int64{
		"/api/analyze-clothing": middleware.MaxImageRequestSize,
	}))
	// 4. Content-Type validation for POST/PATCH/PUT requests
	r.Use(middleware.ContentType)
	// 5. Request timeout
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	// 6. Error handler (catches panics)
	r.Use(middleware.Recover(deps.logger))
	// 7. Logging (innermost, executes last before handler)
	r.Use(middleware.Logging(deps.logger))

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", deps.health.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")
	handlers.NewOpenAPIHandler().RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api").Subrouter()
	if deps.rateLimit != nil {
		apiRouter.Use(deps.rateLimit)
	}
	deps.ai.RegisterRoutes(apiRouter)
	deps.weather.RegisterRoutes(apiRouter)

	// Catch-all OPTIONS so mux routes preflights through the CORS middleware
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// createAIProvider creates an AI provider based on configuration
func createAIProvider(cfg *config.Config, logger *zap.Logger, debugMode bool) (ai.AIProvider, error) {
	if cfg.OpenAIKey == "" {
		return nil, ai.ErrNotConfigured
	}

	providerType := cfg.AIProvider
	if providerType == "" {
		providerType = "openai"
	}

	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry, logger, debugMode)

	return registry.Build(providerType, ai.ProviderConfig{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.AIModel,
		BaseURL: cfg.AIBaseURL,
	})
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// Only expose minimal version info
	_, _ = fmt.Fprintf(w, `{"version":%q,"timestamp":%q}`, version, time.Now().UTC().Format(time.RFC3339))
}
