package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// TokenPrefix is the fixed prefix of every issued token.
	TokenPrefix = "mk_"

	// tokenEntropyBytes is the random payload size. 32 bytes gives 256
	// bits of entropy, encoded as 43 URL-safe characters.
	tokenEntropyBytes = 32

	// TokenLength is the fixed total token length.
	TokenLength = len(TokenPrefix) + 43
)

// NewToken mints a new API key token: the fixed prefix followed by a
// URL-safe base64 encoding (no padding) of 32 cryptographically random
// bytes.
func NewToken() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// LooksLikeToken reports whether s has the shape of an issued token.
// It is a cheap syntactic check, not a validation.
func LooksLikeToken(s string) bool {
	return len(s) == TokenLength && strings.HasPrefix(s, TokenPrefix)
}

// MaskToken returns a display form of a token that preserves the prefix
// and the last four characters. Admin listings use this so raw tokens
// leave the store exactly once, at issuance.
func MaskToken(token string) string {
	if len(token) <= len(TokenPrefix)+4 {
		return token
	}
	return token[:len(TokenPrefix)+4] + "..." + token[len(token)-4:]
}
