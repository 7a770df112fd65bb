// Package source defines the contract between the gateway and the
// content-source adapters it fronts. The gateway never parses content
// itself; it asks a source's Fetcher for the payload of one operation
// and treats the result as opaque bytes.
package source

import (
	"context"
	"errors"
)

// Operation identifies one content operation offered by a source.
type Operation string

// Content operations.
const (
	OpList    Operation = "list"
	OpSearch  Operation = "search"
	OpDetail  Operation = "detail"
	OpChapter Operation = "chapter"
	OpPages   Operation = "pages"
	OpTags    Operation = "tags"
)

// Params carries the normalized request parameters of one fetch.
type Params map[string]string

// Errors a Fetcher returns for the gateway to classify. Any other
// error is treated as a generic upstream failure.
var (
	// ErrChallenge indicates the upstream demanded an interactive
	// challenge the server cannot satisfy.
	ErrChallenge = errors.New("upstream requires an interactive challenge")

	// ErrUnsupported indicates the source does not offer the requested
	// operation.
	ErrUnsupported = errors.New("operation not supported by this source")
)

// Fetcher produces the payload for one operation against one source.
// Implementations own all parsing and upstream communication.
type Fetcher interface {
	Fetch(ctx context.Context, op Operation, params Params) ([]byte, error)
}

// Source describes one registered content source.
type Source struct {
	// ID is the stable identifier used in routes and cache keys.
	ID string `json:"id"`

	// Name is the human-readable source name.
	Name string `json:"name"`

	// Domain is the source's declared web domain, used to derive the
	// proxy Referer.
	Domain string `json:"domain"`

	// Fetcher is the adapter producing this source's payloads.
	Fetcher Fetcher `json:"-"`
}
