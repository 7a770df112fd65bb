package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zacxyonly/manga-api-parsers/internal/config"
	"github.com/zacxyonly/manga-api-parsers/internal/observability"
)

// redisKeyPrefix namespaces all gateway entries in the redis keyspace.
const redisKeyPrefix = "gw:"

// redisScanCount is the batch size for SCAN-based operations.
const redisScanCount = 256

// redisCache is the redis-backed cache backend. Expiry is delegated to
// redis TTLs, so Stats never reports expired entries.
type redisCache struct {
	logger observability.Logger
	client *redis.Client
}

// newRedisCache connects to redis and verifies the connection.
func newRedisCache(cfg *config.Config, logger observability.Logger) (*redisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("redis cache initialized",
		observability.String("addr", cfg.RedisAddr))

	return &redisCache{
		logger: logger,
		client: client,
	}, nil
}

func (c *redisCache) resolveKey(key string) string {
	return redisKeyPrefix + key
}

// Get retrieves a value.
func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.backend", "redis"),
			attribute.String("cache.key", key),
		),
	)
	defer span.End()

	value, err := c.client.Get(ctx, c.resolveKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			GetCacheMetrics().missesTotal.WithLabelValues("redis").Inc()
			span.SetAttributes(attribute.Bool("cache.hit", false))
			return nil, ErrCacheMiss
		}
		span.RecordError(err)
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	GetCacheMetrics().hitsTotal.WithLabelValues("redis").Inc()
	span.SetAttributes(
		attribute.Bool("cache.hit", true),
		attribute.Int("cache.value_size", len(value)),
	)
	return value, nil
}

// Set stores a value under the given TTL.
func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Set",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.backend", "redis"),
			attribute.String("cache.key", key),
			attribute.Int("cache.value_size", len(value)),
		),
	)
	defer span.End()

	if err := c.client.Set(ctx, c.resolveKey(key), value, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes a single entry.
func (c *redisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.resolveKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix, using
// SCAN to avoid blocking redis.
func (c *redisCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	pattern := c.resolveKey(prefix) + "*"
	removed := 0

	iter := c.client.Scan(ctx, 0, pattern, redisScanCount).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("redis delete failed: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan failed: %w", err)
	}

	if removed > 0 {
		c.logger.Info("cache entries invalidated by prefix",
			observability.String("prefix", prefix),
			observability.Int("removed", removed))
	}
	return removed, nil
}

// Flush drops every gateway entry. Only keys under the gateway prefix
// are touched; the redis instance may be shared.
func (c *redisCache) Flush(ctx context.Context) error {
	_, err := c.DeletePrefix(ctx, "")
	return err
}

// Stats counts stored entries. Redis reaps expired keys itself, so
// every counted entry is active.
func (c *redisCache) Stats(ctx context.Context) (Stats, error) {
	total := 0

	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		total++
	}
	if err := iter.Err(); err != nil {
		return Stats{}, fmt.Errorf("redis scan failed: %w", err)
	}

	return Stats{Total: total, Active: total}, nil
}

// Close closes the redis connection.
func (c *redisCache) Close() error {
	return c.client.Close()
}
