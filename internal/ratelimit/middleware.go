package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zacxyonly/manga-api-parsers/internal/auth"
)

// Route classes. The class is a static property of the route, not of
// the caller's tier.
const (
	ClassRead = "read"
	ClassFull = "full"
)

// Middleware returns a gin middleware enforcing the limiter for the
// given route class. Admin principals are exempt and tracked nowhere.
func Middleware(limiter *Limiter, class string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if p, ok := auth.PrincipalFromGin(c); ok && p.IsAdmin() {
			c.Next()
			return
		}

		identity := Identity(c.Request)
		result := limiter.Allow(identity)

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			GetMetrics().rejectionsTotal.WithLabelValues(class).Inc()
			logger.Warn("rate limit exceeded",
				zap.String("class", class),
				zap.String("path", c.Request.URL.Path))

			// Deliberately coarse: no precision beyond "try later".
			c.Header("Retry-After", strconv.Itoa(int(result.ResetAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "too many requests, try later",
			})
			return
		}

		GetMetrics().admissionsTotal.WithLabelValues(class).Inc()
		c.Next()
	}
}
