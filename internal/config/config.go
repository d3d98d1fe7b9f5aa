package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// State and image storage backends
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendFS       = "fs"
	BackendS3       = "s3"
)

// Config holds application configuration for both the API server and the CLI
type Config struct {
	// API server
	ServerPort      string
	FrontendURL     string
	OpenAIKey       string
	AIProvider      string
	AIModel         string
	AIBaseURL       string
	EnableHSTS      bool
	RedisURL        string
	RateLimit       string
	RequestTimeout  time.Duration
	WeatherBaseURL  string
	WeatherCacheTTL time.Duration
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string

	// Wardrobe client
	APIBaseURL        string
	APITimeout        time.Duration
	StateBackend      string
	StateDir          string
	DatabaseURL       string
	ImageBackend      string
	ImageDir          string
	S3Bucket          string
	S3Prefix          string
	AWSRegion         string
	RecommendMode     string
	BackgroundTimeout time.Duration
	BatchWindow       int
	MaxQueueSize      int
	MinTops           int
	MinBottoms        int
	MinShoes          int
	MinTotal          int
	GeneratorSeed     uint64
	DeviceLatitude    *float64
	DeviceLongitude   *float64
	ClientDebugMode   bool
}

// Load loads configuration from environment variables, reading a .env file
// first when one is present
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env is fine

	dataDir := getEnv("WARDROBE_DATA_DIR", defaultDataDir())

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
		AIProvider:      getEnv("AI_PROVIDER", "openai"),
		AIModel:         getEnv("AI_MODEL", ""),
		AIBaseURL:       getEnv("AI_BASE_URL", ""),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		RedisURL:        getEnv("REDIS_URL", ""),
		RateLimit:       getEnv("RATE_LIMIT", "30-M"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		WeatherBaseURL:  getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com"),
		WeatherCacheTTL: getEnvDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		APIBaseURL:        getEnv("WARDROBE_API_URL", "http://localhost:8080"),
		APITimeout:        getEnvDuration("WARDROBE_API_TIMEOUT", 45*time.Second),
		StateBackend:      getEnv("WARDROBE_STATE_BACKEND", BackendFile),
		StateDir:          getEnv("WARDROBE_STATE_DIR", dataDir),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ImageBackend:      getEnv("WARDROBE_IMAGE_BACKEND", BackendFS),
		ImageDir:          getEnv("WARDROBE_IMAGE_DIR", filepath.Join(dataDir, "images")),
		S3Bucket:          getEnv("WARDROBE_S3_BUCKET", ""),
		S3Prefix:          getEnv("WARDROBE_S3_PREFIX", "wardrobe/"),
		AWSRegion:         getEnv("AWS_REGION", ""),
		RecommendMode:     getEnv("WARDROBE_RECOMMEND_MODE", "ai"),
		BackgroundTimeout: getEnvDuration("WARDROBE_BACKGROUND_TIMEOUT", 60*time.Second),
		BatchWindow:       getEnvInt("WARDROBE_BATCH_WINDOW", 3),
		MaxQueueSize:      getEnvInt("WARDROBE_MAX_QUEUE", 20),
		MinTops:           getEnvInt("WARDROBE_MIN_TOPS", 5),
		MinBottoms:        getEnvInt("WARDROBE_MIN_BOTTOMS", 3),
		MinShoes:          getEnvInt("WARDROBE_MIN_SHOES", 2),
		MinTotal:          getEnvInt("WARDROBE_MIN_TOTAL", 10),
		GeneratorSeed:     getEnvUint64("WARDROBE_SEED", 0),
		DeviceLatitude:    getEnvFloat("WARDROBE_DEVICE_LAT"),
		DeviceLongitude:   getEnvFloat("WARDROBE_DEVICE_LON"),
		ClientDebugMode:   getEnvBool("WARDROBE_DEBUG", false),
	}

	return cfg, nil
}

// LoadServer loads configuration and validates what the API server needs.
// OPENAI_API_KEY stays optional: AI endpoints answer 503 without it.
func LoadServer() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		return nil, fmt.Errorf("SERVER_PORT must be numeric, got %q", cfg.ServerPort)
	}
	if cfg.RateLimit == "" {
		return nil, fmt.Errorf("RATE_LIMIT must not be empty")
	}
	return cfg, nil
}

// LoadClient loads configuration and validates the wardrobe client's storage backends
func LoadClient() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	switch cfg.StateBackend {
	case BackendFile:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required for the redis state backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres state backend")
		}
	default:
		return nil, fmt.Errorf("unknown WARDROBE_STATE_BACKEND %q (must be file, redis or postgres)", cfg.StateBackend)
	}

	switch cfg.ImageBackend {
	case BackendFS:
	case BackendS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("WARDROBE_S3_BUCKET is required for the s3 image backend")
		}
	default:
		return nil, fmt.Errorf("unknown WARDROBE_IMAGE_BACKEND %q (must be fs or s3)", cfg.ImageBackend)
	}

	if cfg.RecommendMode != "ai" && cfg.RecommendMode != "classic" {
		return nil, fmt.Errorf("WARDROBE_RECOMMEND_MODE must be ai or classic, got %q", cfg.RecommendMode)
	}
	if (cfg.DeviceLatitude == nil) != (cfg.DeviceLongitude == nil) {
		return nil, fmt.Errorf("WARDROBE_DEVICE_LAT and WARDROBE_DEVICE_LON must be set together")
	}
	return cfg, nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "smart-wardrobe")
	}
	return ".smart-wardrobe"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvFloat returns nil when the variable is unset or malformed
func getEnvFloat(key string) *float64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
