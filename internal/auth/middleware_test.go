package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zacxyonly/manga-api-parsers/internal/keystore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestKeystore(t *testing.T) *keystore.Store {
	t.Helper()
	store, err := keystore.Open(filepath.Join(t.TempDir(), "apikeys.json"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newProtectedRouter(store *keystore.Store, min keystore.Tier) *gin.Engine {
	router := gin.New()
	router.GET("/protected", RequireTier(store, min, nil), func(c *gin.Context) {
		principal, ok := PrincipalFromGin(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": principal.Name})
	})
	return router
}

func TestRequireTier_MissingCredential(t *testing.T) {
	store := newTestKeystore(t)
	router := newProtectedRouter(store, keystore.TierRead)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "credential_missing")
}

func TestRequireTier_InvalidCredential(t *testing.T) {
	store := newTestKeystore(t)
	router := newProtectedRouter(store, keystore.TierRead)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(HeaderAPIKey, "mk_neverissued")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "credential_invalid")
}

func TestRequireTier_RevokedCredential(t *testing.T) {
	store := newTestKeystore(t)
	key, err := store.Generate("gone", keystore.TierFull)
	require.NoError(t, err)
	require.True(t, store.Revoke(key.Token))

	router := newProtectedRouter(store, keystore.TierRead)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(HeaderAPIKey, key.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "credential_invalid")
}

func TestRequireTier_InsufficientTier(t *testing.T) {
	store := newTestKeystore(t)
	key, err := store.Generate("reader", keystore.TierRead)
	require.NoError(t, err)

	router := newProtectedRouter(store, keystore.TierFull)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(HeaderAPIKey, key.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "tier_insufficient")
}

func TestRequireTier_AllowedSetsPrincipal(t *testing.T) {
	store := newTestKeystore(t)
	key, err := store.Generate("writer", keystore.TierFull)
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
	}{
		{
			name: "via bearer",
			prepare: func(r *http.Request) {
				r.Header.Set(HeaderAuthorization, "Bearer "+key.Token)
			},
		},
		{
			name: "via api key header",
			prepare: func(r *http.Request) {
				r.Header.Set(HeaderAPIKey, key.Token)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newProtectedRouter(store, keystore.TierFull)
			req := httptest.NewRequest("GET", "/protected", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), "writer")
		})
	}
}

func TestRequireTier_HigherTierAccepted(t *testing.T) {
	store := newTestKeystore(t)
	key, err := store.Generate("root", keystore.TierAdmin)
	require.NoError(t, err)

	router := newProtectedRouter(store, keystore.TierRead)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set(HeaderAPIKey, key.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPrincipal_ContextRoundTrip(t *testing.T) {
	p := &Principal{KeyID: "id", Name: "n", Tier: keystore.TierAdmin, Token: "mk_x"}

	req := httptest.NewRequest("GET", "/", nil)
	ctx := ContextWithPrincipal(req.Context(), p)

	got, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.True(t, got.IsAdmin())

	_, ok = PrincipalFromContext(req.Context())
	assert.False(t, ok)
}
