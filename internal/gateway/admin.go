package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zacxyonly/manga-api-parsers/internal/cache"
	"github.com/zacxyonly/manga-api-parsers/internal/keystore"
)

// keyView is the administrative listing view of a key. Tokens are
// masked; the raw token is only ever shown at creation time.
type keyView struct {
	ID         string     `json:"id"`
	Token      string     `json:"token"`
	Name       string     `json:"name"`
	Tier       string     `json:"tier"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used,omitempty"`
	TotalCalls uint64     `json:"total_calls"`
}

func (g *Gateway) handleListKeys(c *gin.Context) {
	records := g.keys.List()
	out := make([]keyView, 0, len(records))
	for _, rec := range records {
		out = append(out, keyView{
			ID:         rec.ID,
			Token:      keystore.MaskToken(rec.Token),
			Name:       rec.Name,
			Tier:       rec.Tier.String(),
			Active:     rec.Active,
			CreatedAt:  rec.CreatedAt,
			LastUsed:   rec.LastUsed,
			TotalCalls: rec.TotalCalls,
		})
	}
	c.JSON(http.StatusOK, gin.H{"keys": out, "total": len(out)})
}

// createKeyRequest is the POST /admin/keys body.
type createKeyRequest struct {
	Name string `json:"name" binding:"required"`
	Tier string `json:"tier" binding:"required"`
}

func (g *Gateway) handleCreateKey(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeValidationError,
			"request body must provide name and tier")
		return
	}

	tier, err := keystore.ParseTier(req.Tier)
	if err != nil {
		writeError(c, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	key, err := g.keys.Generate(req.Name, tier)
	if err != nil {
		g.zlog.Error("failed to generate API key",
			zap.String("name", req.Name),
			zap.Error(err))
		writeError(c, http.StatusInternalServerError, codeInternalError,
			"failed to generate API key")
		return
	}

	// The only response that ever carries the raw token.
	c.JSON(http.StatusCreated, gin.H{
		"id":         key.ID,
		"token":      key.Token,
		"name":       key.Name,
		"tier":       key.Tier.String(),
		"created_at": key.CreatedAt,
	})
}

func (g *Gateway) handleRevokeKey(c *gin.Context) {
	token := c.Param("token")
	if !g.keys.Revoke(token) {
		writeError(c, http.StatusNotFound, codeNotFound, "unknown API key")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":   keystore.MaskToken(token),
		"revoked": true,
	})
}

func (g *Gateway) handleFlushCache(c *gin.Context) {
	if err := g.cache.Flush(c.Request.Context()); err != nil {
		g.zlog.Error("cache flush failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, codeInternalError,
			"cache flush failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"flushed": true})
}

func (g *Gateway) handleFlushSource(c *gin.Context) {
	id := c.Param("source")
	if _, ok := g.registry.Get(id); !ok {
		writeError(c, http.StatusBadRequest, codeValidationError,
			"unknown source: "+id)
		return
	}

	removed, err := g.cache.DeletePrefix(c.Request.Context(), cache.SourcePrefix(id))
	if err != nil {
		g.zlog.Error("cache invalidation failed",
			zap.String("source", id),
			zap.Error(err))
		writeError(c, http.StatusInternalServerError, codeInternalError,
			"cache invalidation failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": id, "removed": removed})
}

func (g *Gateway) handleCacheStats(c *gin.Context) {
	stats, err := g.cache.Stats(c.Request.Context())
	if err != nil {
		g.zlog.Error("cache stats failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, codeInternalError,
			"cache stats unavailable")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (g *Gateway) handleStatus(c *gin.Context) {
	stats, err := g.cache.Stats(c.Request.Context())
	if err != nil {
		g.zlog.Warn("cache stats unavailable for status", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds": int64(time.Since(g.startedAt).Seconds()),
		"sources":        g.registry.Count(),
		"keys":           g.keys.Count(),
		"cache":          stats,
		"cache_backend":  g.cfg.CacheBackend,
	})
}
