package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zacxyonly/manga-api-parsers/internal/cache"
	"github.com/zacxyonly/manga-api-parsers/internal/source"
)

// maxSearchSources caps a single federated search. Excess requested
// sources are truncated, not rejected.
const maxSearchSources = 5

// searchResult is one branch of a federated search. Exactly one of
// Data and Error is set.
type searchResult struct {
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// handleSearch fans a query out to the requested sources concurrently
// and joins the per-source results in request order. A failing source
// never fails the whole search; its slot carries the error instead.
func (g *Gateway) handleSearch(c *gin.Context) {
	params := collectParams(c)
	if params["q"] == "" {
		writeError(c, http.StatusBadRequest, codeValidationError,
			"missing required parameter: q")
		return
	}

	sources, err := g.searchTargets(params["sources"])
	if err != nil {
		writeError(c, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}
	delete(params, "sources")

	results := make([]searchResult, len(sources))

	eg, ctx := errgroup.WithContext(c.Request.Context())
	for i, src := range sources {
		i, src := i, src
		eg.Go(func() error {
			results[i] = g.searchOne(ctx, src, params)
			return nil
		})
	}
	// Branches never return errors; Wait only orders completion.
	_ = eg.Wait()

	c.JSON(http.StatusOK, gin.H{
		"query":   params["q"],
		"results": results,
	})
}

// searchTargets resolves the comma-separated sources parameter. An
// empty parameter means every registered source.
func (g *Gateway) searchTargets(spec string) ([]*source.Source, error) {
	var sources []*source.Source
	if spec == "" {
		sources = g.registry.List()
	} else {
		for _, id := range strings.Split(spec, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			src, ok := g.registry.Get(id)
			if !ok {
				return nil, &unknownSourceError{id: id}
			}
			sources = append(sources, src)
		}
	}
	if len(sources) > maxSearchSources {
		sources = sources[:maxSearchSources]
	}
	return sources, nil
}

type unknownSourceError struct {
	id string
}

func (e *unknownSourceError) Error() string {
	return "unknown source: " + e.id
}

// searchOne runs one search branch with its own timeout, consulting
// the cache before the fetcher.
func (g *Gateway) searchOne(ctx context.Context, src *source.Source, params source.Params) searchResult {
	key := cache.Key(src.ID, string(source.OpSearch), params)
	if data, err := g.cache.Get(ctx, key); err == nil {
		return searchResult{Source: src.ID, Data: data}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, g.cfg.FetchTimeout)
	defer cancel()

	data, err := src.Fetcher.Fetch(fetchCtx, source.OpSearch, params)
	if err != nil {
		g.zlog.Warn("search branch failed",
			zap.String("source", src.ID),
			zap.Error(err))
		return searchResult{Source: src.ID, Error: fetchErrorCode(err)}
	}

	if err := g.cache.Set(ctx, key, data, g.ttl.For(cache.CategoryList)); err != nil {
		g.zlog.Warn("failed to cache search response",
			zap.String("key", key),
			zap.Error(err))
	}
	return searchResult{Source: src.ID, Data: data}
}
