package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key builds the composite cache key for one operation against one
// source. Parameter names and values are escaped before joining so
// distinct parameter sets always produce disjoint keys; the cache is
// not type-checked at the storage layer, so a collision across
// differently-shaped payloads would be a correctness bug.
func Key(source, operation string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(source)
	b.WriteByte(':')
	b.WriteString(operation)

	if len(params) == 0 {
		return b.String()
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteByte(':')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[name]))
	}
	return b.String()
}

// SourcePrefix returns the key prefix covering every cached entry for
// one source, for use with DeletePrefix.
func SourcePrefix(source string) string {
	return source + ":"
}
