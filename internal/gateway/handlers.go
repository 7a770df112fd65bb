package gateway

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zacxyonly/manga-api-parsers/internal/auth"
	"github.com/zacxyonly/manga-api-parsers/internal/cache"
	"github.com/zacxyonly/manga-api-parsers/internal/source"
)

const contentTypeJSON = "application/json; charset=utf-8"

// collectParams gathers the query parameters that shape the upstream
// request. Credentials travel out-of-band and never reach a fetcher or
// a cache key.
func collectParams(c *gin.Context) source.Params {
	params := source.Params{}
	for name, values := range c.Request.URL.Query() {
		if name == auth.QueryAPIKey || len(values) == 0 {
			continue
		}
		params[name] = values[0]
	}
	return params
}

// resolveSource looks up the :source path parameter in the registry.
func (g *Gateway) resolveSource(c *gin.Context) (*source.Source, bool) {
	id := c.Param("source")
	src, ok := g.registry.Get(id)
	if !ok {
		writeError(c, http.StatusBadRequest, codeValidationError,
			"unknown source: "+id)
		return nil, false
	}
	return src, true
}

// sourceOpHandler builds the shared cache-then-fetch handler for a
// single-source operation. Cached responses are returned byte for byte
// as originally stored.
func (g *Gateway) sourceOpHandler(op source.Operation, category cache.Category, required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		src, ok := g.resolveSource(c)
		if !ok {
			return
		}

		params := collectParams(c)
		for _, name := range required {
			if params[name] == "" {
				writeError(c, http.StatusBadRequest, codeValidationError,
					"missing required parameter: "+name)
				return
			}
		}

		key := cache.Key(src.ID, string(op), params)
		if data, err := g.cache.Get(c.Request.Context(), key); err == nil {
			c.Data(http.StatusOK, contentTypeJSON, data)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), g.cfg.FetchTimeout)
		defer cancel()

		data, err := src.Fetcher.Fetch(ctx, op, params)
		if err != nil {
			writeFetchError(c, g.zlog, src.ID, op, err)
			return
		}

		if err := g.cache.Set(c.Request.Context(), key, data, g.ttl.For(category)); err != nil {
			g.zlog.Warn("failed to cache response",
				zap.String("key", key),
				zap.Error(err))
		}
		c.Data(http.StatusOK, contentTypeJSON, data)
	}
}

// sourceInfo is the public view of a registered source.
type sourceInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func (g *Gateway) handleListSources(c *gin.Context) {
	sources := g.registry.List()
	out := make([]sourceInfo, 0, len(sources))
	for _, src := range sources {
		out = append(out, sourceInfo{ID: src.ID, Name: src.Name, Domain: src.Domain})
	}
	c.JSON(http.StatusOK, gin.H{"sources": out})
}
