package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zacxyonly/manga-api-parsers/internal/observability"
)

// cacheTracerName is the OpenTelemetry tracer name for cache operations.
const cacheTracerName = "manga-api-parsers/cache"

// janitorInterval is how often expired entries are reclaimed in the
// background. Reclamation is lazy on reads; the sweep only bounds
// memory held by entries nobody asks for again.
const janitorInterval = time.Minute

// memoryEntry is a stored cache entry.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// expired reports whether the entry's TTL has elapsed at now.
func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// memoryCache is the in-process cache backend.
type memoryCache struct {
	logger observability.Logger

	mu    sync.RWMutex
	items map[string]*memoryEntry

	stopCh   chan struct{}
	stopOnce sync.Once
}

// newMemoryCache creates the in-memory cache and starts its janitor.
func newMemoryCache(logger observability.Logger) *memoryCache {
	if logger == nil {
		logger = observability.NopLogger()
	}

	c := &memoryCache{
		logger: logger,
		items:  make(map[string]*memoryEntry),
		stopCh: make(chan struct{}),
	}

	go c.janitorLoop()

	logger.Info("memory cache initialized")
	return c
}

// Get retrieves a value, evicting the entry on the spot when it has
// expired.
func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	_, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Get",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("cache.backend", "memory"),
			attribute.String("cache.key", key),
		),
	)
	defer span.End()

	c.mu.RLock()
	entry, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		GetCacheMetrics().missesTotal.WithLabelValues("memory").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, ErrCacheMiss
	}

	if entry.expired(time.Now()) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// replaced the entry.
		if current, ok := c.items[key]; ok && current == entry {
			delete(c.items, key)
			GetCacheMetrics().evictionsTotal.WithLabelValues("memory").Inc()
		}
		c.mu.Unlock()

		GetCacheMetrics().missesTotal.WithLabelValues("memory").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, ErrCacheMiss
	}

	GetCacheMetrics().hitsTotal.WithLabelValues("memory").Inc()
	span.SetAttributes(
		attribute.Bool("cache.hit", true),
		attribute.Int("cache.value_size", len(entry.value)),
	)

	return entry.value, nil
}

// Set stores a value, unconditionally replacing any previous entry.
func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Set",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("cache.backend", "memory"),
			attribute.String("cache.key", key),
			attribute.Int("cache.value_size", len(value)),
		),
	)
	defer span.End()

	entry := &memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	c.mu.Lock()
	c.items[key] = entry
	size := len(c.items)
	c.mu.Unlock()

	GetCacheMetrics().sizeGauge.WithLabelValues("memory").Set(float64(size))

	c.logger.Debug("cache set",
		observability.String("key", key),
		observability.Duration("ttl", ttl))

	return nil
}

// Delete removes a single entry.
func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix.
func (c *memoryCache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Info("cache entries invalidated by prefix",
			observability.String("prefix", prefix),
			observability.Int("removed", removed))
	}

	return removed, nil
}

// Flush drops every entry.
func (c *memoryCache) Flush(_ context.Context) error {
	c.mu.Lock()
	count := len(c.items)
	c.items = make(map[string]*memoryEntry)
	c.mu.Unlock()

	GetCacheMetrics().sizeGauge.WithLabelValues("memory").Set(0)
	c.logger.Info("cache flushed", observability.Int("dropped", count))
	return nil
}

// Stats scans the store counting live and expired entries.
func (c *memoryCache) Stats(_ context.Context) (Stats, error) {
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{Total: len(c.items)}
	for _, entry := range c.items {
		if entry.expired(now) {
			stats.Expired++
		} else {
			stats.Active++
		}
	}
	return stats, nil
}

// Close stops the janitor and drops all entries.
func (c *memoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })

	c.mu.Lock()
	c.items = make(map[string]*memoryEntry)
	c.mu.Unlock()

	c.logger.Info("memory cache closed")
	return nil
}

// janitorLoop periodically reclaims expired entries.
func (c *memoryCache) janitorLoop() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.reclaim()
		case <-c.stopCh:
			return
		}
	}
}

// reclaim removes expired entries under a single write lock.
func (c *memoryCache) reclaim() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.items {
		if entry.expired(now) {
			delete(c.items, key)
			removed++
		}
	}

	if removed > 0 {
		GetCacheMetrics().evictionsTotal.WithLabelValues("memory").Add(float64(removed))
		c.logger.Debug("cache janitor reclaimed expired entries",
			observability.Int("removed", removed))
	}
}
