// Package gateway composes the request-admission pipeline: credential
// validation, tier authorization, rate limiting, the response cache and
// the outbound proxy, around the content-source collaborators.
package gateway

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zacxyonly/manga-api-parsers/internal/auth"
	"github.com/zacxyonly/manga-api-parsers/internal/cache"
	"github.com/zacxyonly/manga-api-parsers/internal/config"
	"github.com/zacxyonly/manga-api-parsers/internal/keystore"
	"github.com/zacxyonly/manga-api-parsers/internal/observability"
	"github.com/zacxyonly/manga-api-parsers/internal/proxy"
	"github.com/zacxyonly/manga-api-parsers/internal/ratelimit"
	"github.com/zacxyonly/manga-api-parsers/internal/source"
)

// ginModeOnce ensures gin.SetMode is only called once.
var ginModeOnce sync.Once

// Gateway owns the shared components and builds the HTTP surface.
// It is constructed once at startup and passed into every handler;
// there are no ambient globals.
type Gateway struct {
	cfg      *config.Config
	logger   observability.Logger
	zlog     *zap.Logger
	keys     *keystore.Store
	cache    cache.Cache
	ttl      cache.TTLSet
	registry *source.Registry

	readLimiter *ratelimit.Limiter
	fullLimiter *ratelimit.Limiter
	imageProxy  *proxy.ImageProxy

	metricsRegistry *prometheus.Registry
	startedAt       time.Time
}

// New wires a gateway from its configuration and source registry.
func New(cfg *config.Config, registry *source.Registry, logger observability.Logger) (*Gateway, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	keys, err := keystore.Open(cfg.KeystorePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open key store: %w", err)
	}

	responseCache, err := cache.New(cfg, logger)
	if err != nil {
		_ = keys.Close()
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	zlog := observability.Zap(logger)

	g := &Gateway{
		cfg:             cfg,
		logger:          logger,
		zlog:            zlog,
		keys:            keys,
		cache:           responseCache,
		ttl:             cache.NewTTLSet(cfg.CacheTTL),
		registry:        registry,
		readLimiter:     ratelimit.NewLimiter(cfg.ReadLimitPerMinute, time.Minute, zlog),
		fullLimiter:     ratelimit.NewLimiter(cfg.FullLimitPerMinute, time.Minute, zlog),
		imageProxy:      proxy.NewImageProxy(registry, cfg.ProxyTimeout, zlog),
		metricsRegistry: prometheus.NewRegistry(),
		startedAt:       time.Now(),
	}

	auth.GetMetrics().MustRegister(g.metricsRegistry)
	ratelimit.GetMetrics().MustRegister(g.metricsRegistry)
	cache.GetCacheMetrics().MustRegister(g.metricsRegistry)
	proxy.GetMetrics().MustRegister(g.metricsRegistry)

	return g, nil
}

// Keys exposes the key store for administrative wiring.
func (g *Gateway) Keys() *keystore.Store {
	return g.keys
}

// Engine builds the gin engine with the full middleware chain and
// route table.
func (g *Gateway) Engine() *gin.Engine {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()
	engine.Use(
		Recovery(g.zlog),
		Logging(g.zlog),
		CORS(g.cfg.AllowedOrigins),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(g.metricsRegistry, promhttp.HandlerOpts{})))

	requireRead := auth.RequireTier(g.keys, keystore.TierRead, g.zlog)
	requireFull := auth.RequireTier(g.keys, keystore.TierFull, g.zlog)
	requireAdmin := auth.RequireTier(g.keys, keystore.TierAdmin, g.zlog)
	readLimited := ratelimit.Middleware(g.readLimiter, ratelimit.ClassRead, g.zlog)
	fullLimited := ratelimit.Middleware(g.fullLimiter, ratelimit.ClassFull, g.zlog)

	api := engine.Group("/api", requireRead, readLimited)
	{
		api.GET("/sources", g.handleListSources)
		api.GET("/search", g.handleSearch)
		api.GET("/:source/list", g.sourceOpHandler(source.OpList, cache.CategoryList))
		api.GET("/:source/tags", g.sourceOpHandler(source.OpTags, cache.CategoryTags))
		api.GET("/:source/detail", g.sourceOpHandler(source.OpDetail, cache.CategoryDetail, "id"))
		api.GET("/:source/chapter", g.sourceOpHandler(source.OpChapter, cache.CategoryDetail, "id"))
		api.GET("/:source/pages", g.sourceOpHandler(source.OpPages, cache.CategoryPages, "id"))
	}

	engine.GET("/api/proxy", requireFull, fullLimited, g.imageProxy.Handler())

	admin := engine.Group("/admin", requireAdmin)
	{
		admin.GET("/keys", g.handleListKeys)
		admin.POST("/keys", g.handleCreateKey)
		admin.DELETE("/keys/:token", g.handleRevokeKey)
		admin.POST("/cache/flush", g.handleFlushCache)
		admin.POST("/cache/flush/:source", g.handleFlushSource)
		admin.GET("/cache/stats", g.handleCacheStats)
		admin.GET("/status", g.handleStatus)
	}

	return engine
}

// Close releases every component the gateway owns.
func (g *Gateway) Close() error {
	g.readLimiter.Stop()
	g.fullLimiter.Stop()

	var firstErr error
	if err := g.cache.Close(); err != nil {
		firstErr = err
	}
	if err := g.keys.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
