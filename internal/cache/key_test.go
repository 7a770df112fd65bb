package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		operation string
		params    map[string]string
		want      string
	}{
		{
			name:      "no params",
			source:    "mangadex",
			operation: "tags",
			want:      "mangadex:tags",
		},
		{
			name:      "single param",
			source:    "mangadex",
			operation: "detail",
			params:    map[string]string{"id": "42"},
			want:      "mangadex:detail:id=42",
		},
		{
			name:      "params sorted by name",
			source:    "mangadex",
			operation: "search",
			params:    map[string]string{"page": "2", "q": "naruto", "limit": "10"},
			want:      "mangadex:search:limit=10&page=2&q=naruto",
		},
		{
			name:      "empty params map same as none",
			source:    "comick",
			operation: "list",
			params:    map[string]string{},
			want:      "comick:list",
		},
		{
			name:      "separator characters escaped",
			source:    "mangadex",
			operation: "search",
			params:    map[string]string{"q": "a=b&c"},
			want:      "mangadex:search:q=a%3Db%26c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.source, tt.operation, tt.params))
		})
	}
}

func TestKey_OrderIndependent(t *testing.T) {
	a := Key("s", "op", map[string]string{"a": "1", "b": "2"})
	b := Key("s", "op", map[string]string{"b": "2", "a": "1"})
	assert.Equal(t, a, b)
}

func TestKey_DistinctParamsDistinctKeys(t *testing.T) {
	a := Key("s", "op", map[string]string{"q": "one"})
	b := Key("s", "op", map[string]string{"q": "two"})
	assert.NotEqual(t, a, b)
}

func TestKey_NoCollisionAcrossParamShapes(t *testing.T) {
	// A value containing the join separators must not alias a
	// differently-shaped parameter set.
	two := Key("s", "search", map[string]string{"a": "1", "b": "2"})
	one := Key("s", "search", map[string]string{"a": "1&b=2"})
	assert.NotEqual(t, two, one)

	nameShift := Key("s", "search", map[string]string{"a": "1", "b": "2"})
	embedded := Key("s", "search", map[string]string{"a=1&b": "2"})
	assert.NotEqual(t, nameShift, embedded)
}

func TestSourcePrefix(t *testing.T) {
	assert.Equal(t, "mangadex:", SourcePrefix("mangadex"))
}
