package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zacxyonly/manga-api-parsers/internal/keystore"
)

// Authentication decision outcomes (metrics labels and error codes).
const (
	outcomeAllowed      = "allowed"
	outcomeMissing      = "credential_missing"
	outcomeInvalid      = "credential_invalid"
	outcomeInsufficient = "tier_insufficient"
)

// RequireTier returns a middleware that authenticates the request
// against the key store and enforces a minimum tier. The three failure
// causes are reported distinctly: no credential, unknown or revoked
// credential, and insufficient tier.
func RequireTier(store *keystore.Store, min keystore.Tier, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		token, ok := ExtractToken(c.Request)
		if !ok {
			GetMetrics().RecordDecision(outcomeMissing)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   outcomeMissing,
				"message": "API credential required",
			})
			return
		}

		key, valid := store.Validate(token)
		if !valid {
			GetMetrics().RecordDecision(outcomeInvalid)
			logger.Debug("rejected unknown or revoked credential",
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   outcomeInvalid,
				"message": "invalid or revoked API key",
			})
			return
		}

		if !key.Tier.Satisfies(min) {
			GetMetrics().RecordDecision(outcomeInsufficient)
			logger.Debug("rejected insufficient tier",
				zap.String("key_id", key.ID),
				zap.String("tier", key.Tier.String()),
				zap.String("required", min.String()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   outcomeInsufficient,
				"message": "insufficient access tier",
			})
			return
		}

		GetMetrics().RecordDecision(outcomeAllowed)

		principal := &Principal{
			KeyID: key.ID,
			Name:  key.Name,
			Tier:  key.Tier,
			Token: key.Token,
		}
		c.Set(PrincipalKey, principal)
		c.Request = c.Request.WithContext(
			ContextWithPrincipal(c.Request.Context(), principal))

		c.Next()
	}
}
