package main

import (
	"fmt"

	"github.com/zacxyonly/manga-api-parsers/internal/config"
	"github.com/zacxyonly/manga-api-parsers/internal/observability"
	"github.com/zacxyonly/manga-api-parsers/internal/source"
)

// builtinSources registers the upstream catalogs this deployment
// fronts. Sources that cannot serve an operation simply omit it from
// their path table and report it as unsupported.
func builtinSources(cfg *config.Config, logger observability.Logger) (*source.Registry, error) {
	zlog := observability.Zap(logger)
	registry := source.NewRegistry()

	catalog := []*source.Source{
		{
			ID:     "mangadex",
			Name:   "MangaDex",
			Domain: "mangadex.org",
			Fetcher: source.NewHTTPFetcher("https://api.mangadex.org",
				map[source.Operation]string{
					source.OpList:    "/manga",
					source.OpSearch:  "/manga",
					source.OpDetail:  "/manga/detail",
					source.OpChapter: "/chapter",
					source.OpPages:   "/at-home/server",
					source.OpTags:    "/manga/tag",
				}, cfg.FetchTimeout, zlog),
		},
		{
			ID:     "comick",
			Name:   "Comick",
			Domain: "comick.io",
			Fetcher: source.NewHTTPFetcher("https://api.comick.io",
				map[source.Operation]string{
					source.OpList:    "/v1.0/search",
					source.OpSearch:  "/v1.0/search",
					source.OpDetail:  "/comic",
					source.OpChapter: "/chapter",
					source.OpTags:    "/genre",
				}, cfg.FetchTimeout, zlog),
		},
	}

	for _, src := range catalog {
		if err := registry.Register(src); err != nil {
			return nil, fmt.Errorf("failed to register source %q: %w", src.ID, err)
		}
	}
	return registry, nil
}
