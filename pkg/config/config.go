package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nareshthota-64/Sales-CRM/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Shared cache (Redis) configuration
	Cache CacheConfig

	// Identity provider and user directory configuration
	Identity IdentityConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// CacheConfig holds shared Redis cache configuration
type CacheConfig struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int

	// OpTimeout bounds individual cache operations on the request path
	OpTimeout time.Duration
}

// IdentityConfig holds the identity provider and user directory settings
type IdentityConfig struct {
	ProviderURL     string
	ProviderTimeout time.Duration

	DirectoryURL     string
	DirectoryTimeout time.Duration

	// CacheTTL is how long a verified identity stays cached
	CacheTTL time.Duration
}

// RateLimitConfig holds fixed-window rate limiting settings
type RateLimitConfig struct {
	// Default quota applied to routes without an override
	Requests int
	Window   time.Duration

	// RouteLimits maps route prefixes to overriding quotas
	RouteLimits map[string]RouteLimit
}

// RouteLimit is a per-route quota override
type RouteLimit struct {
	Requests int
	Window   time.Duration
}

// CORSConfig holds cross-origin settings
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Cache:         loadCacheConfig(),
		Identity:      loadIdentityConfig(),
		CORS:          loadCORSConfig(),
		Observability: loadObservabilityConfig(),
	}

	rl, err := loadRateLimitConfig()
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	cfg.RateLimit = rl

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CRM_HOST", "0.0.0.0"),
		Port:            getEnv("CRM_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CRM_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CRM_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CRM_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CRM_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("CRM_HEALTH_PORT", "9090"),
	}
}

// loadCacheConfig loads shared cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		URL:        getEnv("CRM_REDIS_URL", "redis://localhost:6379"),
		Password:   getEnv("CRM_REDIS_PASSWORD", ""),
		DB:         getEnvInt("CRM_REDIS_DB", 0),
		MaxRetries: getEnvInt("CRM_REDIS_MAX_RETRIES", 3),
		PoolSize:   getEnvInt("CRM_REDIS_POOL_SIZE", 10),
		OpTimeout:  getEnvDuration("CRM_CACHE_OP_TIMEOUT", 300*time.Millisecond),
	}
}

// loadIdentityConfig loads identity provider and directory configuration
func loadIdentityConfig() IdentityConfig {
	return IdentityConfig{
		ProviderURL:      getEnv("CRM_PROVIDER_URL", "http://localhost:8443"),
		ProviderTimeout:  getEnvDuration("CRM_PROVIDER_TIMEOUT", 3*time.Second),
		DirectoryURL:     getEnv("CRM_DIRECTORY_URL", "http://localhost:8444"),
		DirectoryTimeout: getEnvDuration("CRM_DIRECTORY_TIMEOUT", 3*time.Second),
		CacheTTL:         getEnvDuration("CRM_IDENTITY_CACHE_TTL", time.Hour),
	}
}

// loadRateLimitConfig loads rate limiting configuration from environment
func loadRateLimitConfig() (RateLimitConfig, error) {
	cfg := RateLimitConfig{
		Requests: getEnvInt("CRM_RATE_LIMIT_REQUESTS", 100),
		Window:   getEnvDuration("CRM_RATE_LIMIT_WINDOW", 60*time.Second),
	}

	routeLimits, err := ParseRouteLimits(getEnv("CRM_ROUTE_LIMITS", ""))
	if err != nil {
		return cfg, err
	}
	cfg.RouteLimits = routeLimits

	return cfg, nil
}

// ParseRouteLimits parses per-route quota overrides from a comma-separated
// list of "prefix=requests:windowSeconds" entries, for example
// "/api/v1/auth=10:60,/api/v1/analytics=30:60".
func ParseRouteLimits(raw string) (map[string]RouteLimit, error) {
	limits := make(map[string]RouteLimit)
	if strings.TrimSpace(raw) == "" {
		return limits, nil
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		prefix, quota, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid route limit %q: expected prefix=requests:windowSeconds", entry)
		}
		prefix = strings.TrimSpace(prefix)
		if !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("invalid route limit prefix %q: must start with /", prefix)
		}

		reqStr, winStr, ok := strings.Cut(quota, ":")
		if !ok {
			return nil, fmt.Errorf("invalid route limit %q: expected requests:windowSeconds", entry)
		}
		requests, err := strconv.Atoi(strings.TrimSpace(reqStr))
		if err != nil || requests <= 0 {
			return nil, fmt.Errorf("invalid route limit %q: requests must be a positive integer", entry)
		}
		windowSecs, err := strconv.Atoi(strings.TrimSpace(winStr))
		if err != nil || windowSecs <= 0 {
			return nil, fmt.Errorf("invalid route limit %q: window seconds must be a positive integer", entry)
		}

		limits[prefix] = RouteLimit{
			Requests: requests,
			Window:   time.Duration(windowSecs) * time.Second,
		}
	}

	return limits, nil
}

// loadCORSConfig loads CORS configuration from environment
func loadCORSConfig() CORSConfig {
	cfg := CORSConfig{
		MaxAge: getEnvDuration("CRM_CORS_MAX_AGE", 10*time.Minute),
	}

	raw := getEnv("CRM_CORS_ORIGINS", "http://localhost:3000")
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("CRM_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("CRM_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Cache.URL == "" {
		return fmt.Errorf("redis URL is required")
	}

	if c.Identity.ProviderURL == "" {
		return fmt.Errorf("identity provider URL is required")
	}
	if c.Identity.DirectoryURL == "" {
		return fmt.Errorf("user directory URL is required")
	}
	if c.Identity.CacheTTL <= 0 {
		return fmt.Errorf("identity cache TTL must be positive")
	}

	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("rate limit requests must be positive")
	}
	if c.RateLimit.Window < time.Second {
		return fmt.Errorf("rate limit window must be at least one second")
	}
	for prefix, rl := range c.RateLimit.RouteLimits {
		if rl.Requests <= 0 || rl.Window < time.Second {
			return fmt.Errorf("invalid route limit for %s", prefix)
		}
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin is required")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
