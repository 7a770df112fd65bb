package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/zacxyonly/manga-api-parsers/internal/keystore"
)

// PrincipalKey is the gin context key under which the authenticated
// principal is stored.
const PrincipalKey = "principal"

// Principal is the resolved identity of an authenticated request.
type Principal struct {
	// KeyID is the stable identifier of the API key.
	KeyID string

	// Name is the human-readable key name.
	Name string

	// Tier is the key's access tier.
	Tier keystore.Tier

	// Token is the raw credential the request presented. Rate limiting
	// uses it as the quota identity.
	Token string
}

// IsAdmin reports whether the principal holds the admin tier.
func (p *Principal) IsAdmin() bool {
	return p.Tier == keystore.TierAdmin
}

type principalContextKey struct{}

// ContextWithPrincipal returns a context carrying the principal.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from a context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok
}

// PrincipalFromGin extracts the principal stored by the auth middleware.
func PrincipalFromGin(c *gin.Context) (*Principal, bool) {
	value, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := value.(*Principal)
	return p, ok
}
