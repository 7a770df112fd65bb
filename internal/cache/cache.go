// Package cache provides the TTL response cache for the gateway, with
// category-based expiry and prefix invalidation.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/zacxyonly/manga-api-parsers/internal/config"
	"github.com/zacxyonly/manga-api-parsers/internal/observability"
)

// Common cache errors.
var (
	// ErrCacheMiss indicates that the key was not found or has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidConfig indicates that the cache configuration is invalid.
	ErrInvalidConfig = errors.New("invalid cache configuration")
)

// Cache is the interface for the response cache. Keys are opaque
// composite strings built by the caller; the cache itself is a dumb
// map. An entry is logically absent once its TTL has elapsed,
// regardless of when it is physically reclaimed.
type Cache interface {
	// Get retrieves a value. Returns ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL, unconditionally replacing
	// any existing entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single entry.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every entry whose key starts with prefix and
	// returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Flush drops every entry.
	Flush(ctx context.Context) error

	// Stats scans the store and reports entry counts. The scan cost is
	// accepted; statistics are an infrequent admin operation.
	Stats(ctx context.Context) (Stats, error)

	// Close releases cache resources.
	Close() error
}

// Stats contains point-in-time cache statistics.
type Stats struct {
	// Total is the number of physically stored entries.
	Total int `json:"total"`

	// Active is the number of entries whose TTL has not elapsed.
	Active int `json:"active"`

	// Expired is the number of entries awaiting reclamation.
	Expired int `json:"expired"`
}

// New creates a cache for the configured backend.
func New(cfg *config.Config, logger observability.Logger) (Cache, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	switch cfg.CacheBackend {
	case config.CacheBackendMemory, "":
		return newMemoryCache(logger), nil
	case config.CacheBackendRedis:
		return newRedisCache(cfg, logger)
	default:
		return nil, errors.New("unknown cache backend: " + cfg.CacheBackend)
	}
}
