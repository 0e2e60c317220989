// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the cache database path, upstream service
// endpoints and credentials, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/healthybites/go-food-backend/internal/utils"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-food-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// OpenFoodFactsConfig holds the endpoints and timeout for the Open Food Facts
// product directory API.
type OpenFoodFactsConfig struct {
	SearchURL  string        // OFF_SEARCH_URL
	ProductURL string        // OFF_PRODUCT_URL (barcode lookup base, trailing slash)
	Timeout    time.Duration // OFF_TIMEOUT
}

// WatsonxConfig holds the credentials for the watsonx.ai text generation
// service. The service runs in mock mode when any credential is empty.
type WatsonxConfig struct {
	APIKey    string        // WATSONX_API_KEY
	URL       string        // WATSONX_URL
	ProjectID string        // WATSONX_PROJECT_ID
	ModelID   string        // WATSONX_MODEL_ID
	Timeout   time.Duration // WATSONX_TIMEOUT (hosted inference is slow; bounded anyway)
}

// DiscoveryConfig holds the credentials for the Watson Discovery OCR service.
// The service runs in mock mode when any credential is empty.
type DiscoveryConfig struct {
	APIKey        string        // DISCOVERY_API_KEY
	URL           string        // DISCOVERY_URL
	EnvironmentID string        // DISCOVERY_ENVIRONMENT_ID
	CollectionID  string        // DISCOVERY_COLLECTION_ID
	Timeout       time.Duration // DISCOVERY_TIMEOUT
}

// FlightConfig tunes the in-memory coalescing layer that collapses concurrent
// cache-miss fetches for the same barcode into a single outbound call.
type FlightConfig struct {
	Capacity int           // FLIGHT_CAPACITY
	TTL      time.Duration // FLIGHT_TTL (short; this is a stampede guard, not a cache)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath       string // SQLite path for the cache tables
	CacheEnabled bool   // read-through/write-through caching of resolved records

	// Upstreams
	OpenFoodFacts OpenFoodFactsConfig
	Watsonx       WatsonxConfig
	Discovery     DiscoveryConfig
	Flight        FlightConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:       getenv("DB_PATH", "app.db"),
		CacheEnabled: getbool("CACHE_ENABLED", true),

		// Upstreams
		OpenFoodFacts: OpenFoodFactsConfig{
			SearchURL:  getenv("OFF_SEARCH_URL", "https://world.openfoodfacts.org/cgi/search.pl"),
			ProductURL: getenv("OFF_PRODUCT_URL", "https://world.openfoodfacts.org/api/v0/product/"),
			Timeout:    getdur("OFF_TIMEOUT", 10*time.Second),
		},
		Watsonx: WatsonxConfig{
			APIKey:    getenv("WATSONX_API_KEY", ""),
			URL:       getenv("WATSONX_URL", ""),
			ProjectID: getenv("WATSONX_PROJECT_ID", ""),
			ModelID:   getenv("WATSONX_MODEL_ID", "ibm/granite-3-8b-instruct"),
			Timeout:   getdur("WATSONX_TIMEOUT", 60*time.Second),
		},
		Discovery: DiscoveryConfig{
			APIKey:        getenv("DISCOVERY_API_KEY", ""),
			URL:           getenv("DISCOVERY_URL", ""),
			EnvironmentID: getenv("DISCOVERY_ENVIRONMENT_ID", ""),
			CollectionID:  getenv("DISCOVERY_COLLECTION_ID", ""),
			Timeout:       getdur("DISCOVERY_TIMEOUT", 30*time.Second),
		},
		Flight: FlightConfig{
			Capacity: getint("FLIGHT_CAPACITY", 10000),
			TTL:      getdur("FLIGHT_TTL", 30*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-food-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if !strings.HasSuffix(cfg.OpenFoodFacts.ProductURL, "/") {
		cfg.OpenFoodFacts.ProductURL += "/"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.OpenFoodFacts.SearchURL) == "" || strings.TrimSpace(cfg.OpenFoodFacts.ProductURL) == "" {
		return cfg, errors.New("OFF_SEARCH_URL and OFF_PRODUCT_URL must not be empty")
	}
	if cfg.OpenFoodFacts.Timeout <= 0 {
		return cfg, errors.New("OFF_TIMEOUT must be a positive duration")
	}
	if cfg.Watsonx.Timeout <= 0 {
		return cfg, errors.New("WATSONX_TIMEOUT must be a positive duration")
	}
	if cfg.Discovery.Timeout <= 0 {
		return cfg, errors.New("DISCOVERY_TIMEOUT must be a positive duration")
	}
	if cfg.Flight.Capacity <= 0 {
		return cfg, errors.New("FLIGHT_CAPACITY must be > 0")
	}
	if cfg.Flight.TTL <= 0 {
		return cfg, errors.New("FLIGHT_TTL must be a positive duration")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return utils.AtoiDefault(v, def)
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
