package cache

import (
	"time"

	"github.com/zacxyonly/manga-api-parsers/internal/config"
)

// Category classifies responses for TTL purposes. Browse listings
// change often and expire first; tag metadata changes rarely and lives
// longest.
type Category string

// TTL categories.
const (
	CategoryList   Category = "list"
	CategoryDetail Category = "detail"
	CategoryTags   Category = "tags"
	CategoryPages  Category = "pages"
)

// TTLSet maps response categories to their configured TTLs.
type TTLSet struct {
	list   time.Duration
	detail time.Duration
	tags   time.Duration
	pages  time.Duration
}

// NewTTLSet builds a TTLSet from configuration.
func NewTTLSet(cfg config.CacheTTLConfig) TTLSet {
	return TTLSet{
		list:   cfg.List,
		detail: cfg.Detail,
		tags:   cfg.Tags,
		pages:  cfg.Pages,
	}
}

// For returns the TTL for a category. Unknown categories get the
// shortest configured TTL.
func (s TTLSet) For(cat Category) time.Duration {
	switch cat {
	case CategoryDetail:
		return s.detail
	case CategoryTags:
		return s.tags
	case CategoryPages:
		return s.pages
	default:
		return s.list
	}
}
