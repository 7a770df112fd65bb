// Package config provides environment-driven configuration for the gateway.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cache backend types.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds the full gateway configuration, resolved once at startup
// and passed explicitly into every component.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// LogLevel is the log level (debug, info, warn, error).
	LogLevel string

	// LogFormat is the log output format (json, console).
	LogFormat string

	// KeystorePath is the path of the API key registry file.
	KeystorePath string

	// CacheBackend selects the cache implementation (memory, redis).
	CacheBackend string

	// RedisAddr is the redis address when CacheBackend is redis.
	RedisAddr string

	// RedisPassword is the optional redis password.
	RedisPassword string

	// CacheTTL holds per-category cache TTLs.
	CacheTTL CacheTTLConfig

	// ReadLimitPerMinute is the read-class rate limit.
	ReadLimitPerMinute int

	// FullLimitPerMinute is the full-class rate limit.
	FullLimitPerMinute int

	// AllowedOrigins is the list of allowed CORS origins. Empty means any.
	AllowedOrigins []string

	// ProxyTimeout bounds outbound proxy fetches.
	ProxyTimeout time.Duration

	// FetchTimeout bounds collaborator content fetches.
	FetchTimeout time.Duration
}

// CacheTTLConfig holds TTLs per response category.
type CacheTTLConfig struct {
	List   time.Duration
	Detail time.Duration
	Tags   time.Duration
	Pages  time.Duration
}

// Default configuration values.
const (
	DefaultPort               = 8080
	DefaultKeystorePath       = "data/apikeys.json"
	DefaultReadLimitPerMinute = 60
	DefaultFullLimitPerMinute = 120
	DefaultProxyTimeout       = 30 * time.Second
	DefaultFetchTimeout       = 30 * time.Second

	DefaultListTTL   = 300 * time.Second
	DefaultDetailTTL = 1800 * time.Second
	DefaultTagsTTL   = 86400 * time.Second
	DefaultPagesTTL  = 600 * time.Second
)

// FromEnv builds a Config from environment variables, applying defaults
// for everything unset.
func FromEnv() *Config {
	return &Config{
		Port:          getEnvInt("GATEWAY_PORT", DefaultPort),
		LogLevel:      getEnvOrDefault("GATEWAY_LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("GATEWAY_LOG_FORMAT", "json"),
		KeystorePath:  getEnvOrDefault("KEYSTORE_PATH", DefaultKeystorePath),
		CacheBackend:  getEnvOrDefault("CACHE_BACKEND", CacheBackendMemory),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CacheTTL: CacheTTLConfig{
			List:   getEnvSeconds("CACHE_TTL_LIST", DefaultListTTL),
			Detail: getEnvSeconds("CACHE_TTL_DETAIL", DefaultDetailTTL),
			Tags:   getEnvSeconds("CACHE_TTL_TAGS", DefaultTagsTTL),
			Pages:  getEnvSeconds("CACHE_TTL_PAGES", DefaultPagesTTL),
		},
		ReadLimitPerMinute: getEnvInt("RATE_LIMIT_READ", DefaultReadLimitPerMinute),
		FullLimitPerMinute: getEnvInt("RATE_LIMIT_FULL", DefaultFullLimitPerMinute),
		AllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS"),
		ProxyTimeout:       getEnvSeconds("PROXY_TIMEOUT", DefaultProxyTimeout),
		FetchTimeout:       getEnvSeconds("FETCH_TIMEOUT", DefaultFetchTimeout),
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.KeystorePath == "" {
		return fmt.Errorf("keystore path must not be empty")
	}
	switch c.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown cache backend: %s", c.CacheBackend)
	}
	if c.CacheBackend == CacheBackendRedis && c.RedisAddr == "" {
		return fmt.Errorf("redis address must not be empty")
	}
	if c.ReadLimitPerMinute <= 0 {
		return fmt.Errorf("read rate limit must be positive, got %d", c.ReadLimitPerMinute)
	}
	if c.FullLimitPerMinute <= 0 {
		return fmt.Errorf("full rate limit must be positive, got %d", c.FullLimitPerMinute)
	}
	for _, ttl := range []time.Duration{c.CacheTTL.List, c.CacheTTL.Detail, c.CacheTTL.Tags, c.CacheTTL.Pages} {
		if ttl <= 0 {
			return fmt.Errorf("cache TTLs must be positive")
		}
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an int or a default.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvSeconds returns the environment variable, interpreted as a number
// of seconds, as a duration.
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return time.Duration(n) * time.Second
}

// getEnvList returns a comma-separated environment variable as a slice.
// Unset or empty yields nil.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
