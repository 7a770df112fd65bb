package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, Operation, Params) ([]byte, error) {
	return []byte(`{}`), nil
}

func newSource(id string) *Source {
	return &Source{ID: id, Name: id, Domain: id + ".example", Fetcher: stubFetcher{}}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(newSource("alpha")))
	require.NoError(t, r.Register(newSource("beta")))

	src, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", src.ID)

	_, ok = r.Get("gamma")
	assert.False(t, ok)

	assert.Equal(t, 2, r.Count())
}

func TestRegistry_RegisterRejectsInvalid(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&Source{ID: "", Fetcher: stubFetcher{}}))
	assert.Error(t, r.Register(&Source{ID: "nofetcher"}))

	require.NoError(t, r.Register(newSource("dup")))
	assert.Error(t, r.Register(newSource("dup")), "duplicate IDs are rejected")
}

func TestRegistry_ListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.Register(newSource(id)))
	}

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "b", list[2].ID)
}
