package proxy

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/zacxyonly/manga-api-parsers/internal/source"
)

// proxyTracerName is the OpenTelemetry tracer name for proxy fetches.
const proxyTracerName = "manga-api-parsers/proxy"

// DefaultUserAgent is sent on every proxied fetch.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

// ImageProxy streams upstream image bytes back to the client after the
// URL has passed validation. Responses are never cached.
type ImageProxy struct {
	client   *http.Client
	registry *source.Registry
	logger   *zap.Logger
}

// NewImageProxy creates an image proxy with a bounded-timeout client.
func NewImageProxy(registry *source.Registry, timeout time.Duration, logger *zap.Logger) *ImageProxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}

	return &ImageProxy{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		registry: registry,
		logger:   logger,
	}
}

// Handler returns the gin handler for the proxy route. It expects a
// `url` query parameter and an optional `source` parameter naming the
// source whose domain supplies the Referer.
func (p *ImageProxy) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("url")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "url parameter is required",
			})
			return
		}

		if err := ValidateURL(raw); err != nil {
			GetMetrics().RecordFetch("blocked")
			p.logger.Warn("proxy URL rejected", zap.String("url", raw), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": err.Error(),
			})
			return
		}

		ctx, span := otel.Tracer(proxyTracerName).Start(c.Request.Context(), "proxy.Fetch",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("proxy.url", raw)),
		)
		defer span.End()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "malformed URL",
			})
			return
		}

		req.Header.Set("User-Agent", DefaultUserAgent)
		if sid := c.Query("source"); sid != "" {
			if s, ok := p.registry.Get(sid); ok && s.Domain != "" {
				req.Header.Set("Referer", "https://"+s.Domain+"/")
			}
		}

		resp, err := p.client.Do(req)
		if err != nil {
			GetMetrics().RecordFetch("error")
			span.RecordError(err)
			p.logger.Error("proxy fetch failed", zap.String("url", raw), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "upstream_failure",
				"message": "failed to fetch upstream resource",
			})
			return
		}
		defer func() { _ = resp.Body.Close() }()

		GetMetrics().RecordFetch("success")
		span.SetAttributes(attribute.Int("proxy.status", resp.StatusCode))

		contentType := resp.Header.Get("Content-Type")
		c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, nil)
	}
}
