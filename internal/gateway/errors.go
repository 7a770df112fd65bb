package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zacxyonly/manga-api-parsers/internal/source"
)

// Error codes surfaced in structured error bodies. Authentication and
// rate-limit codes live with their middleware; these cover validation
// and the upstream fetch boundary.
const (
	codeValidationError     = "validation_error"
	codeNotFound            = "not_found"
	codeUpstreamProtected   = "upstream_protected"
	codeUpstreamUnsupported = "upstream_unsupported"
	codeUpstreamFailure     = "upstream_failure"
	codeInternalError       = "internal_error"
)

// writeError writes a structured error body and aborts the request.
func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}

// classifyFetchError maps a collaborator fetch error into the error
// taxonomy. Upstream failures are never retried by the gateway.
func classifyFetchError(err error) (int, string, string) {
	switch {
	case errors.Is(err, source.ErrChallenge):
		return http.StatusServiceUnavailable, codeUpstreamProtected,
			"the content source requires an interactive challenge"
	case errors.Is(err, source.ErrUnsupported):
		return http.StatusNotImplemented, codeUpstreamUnsupported,
			"the content source does not offer this operation"
	default:
		return http.StatusServiceUnavailable, codeUpstreamFailure,
			"the content source failed to produce a response"
	}
}

// fetchErrorCode returns only the taxonomy code for a fetch error,
// for contexts that report failures inline instead of aborting.
func fetchErrorCode(err error) string {
	_, code, _ := classifyFetchError(err)
	return code
}

// writeFetchError logs an upstream failure with its source and
// operation context and writes the classified error response.
func writeFetchError(c *gin.Context, logger *zap.Logger, sourceID string, op source.Operation, err error) {
	status, code, message := classifyFetchError(err)

	logger.Error("upstream fetch failed",
		zap.String("source", sourceID),
		zap.String("operation", string(op)),
		zap.Int("status", status),
		zap.Error(err))

	writeError(c, status, code, message)
}
