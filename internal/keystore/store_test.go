package keystore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apikeys.json")
	store, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_BootstrapsAdminKey(t *testing.T) {
	store := newTestStore(t)

	records := store.List()
	require.Len(t, records, 1)
	assert.Equal(t, DefaultAdminName, records[0].Name)
	assert.Equal(t, TierAdmin, records[0].Tier)
	assert.True(t, records[0].Active)
	assert.True(t, LooksLikeToken(records[0].Token))
}

func TestStore_GenerateAndValidate(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Generate("ci-reader", TierRead)
	require.NoError(t, err)
	require.True(t, LooksLikeToken(key.Token))

	got, ok := store.Validate(key.Token)
	require.True(t, ok)
	assert.Equal(t, key.ID, got.ID)
	assert.Equal(t, TierRead, got.Tier)
	assert.Equal(t, uint64(1), got.TotalCalls())
	assert.False(t, got.LastUsed().IsZero())
}

func TestStore_GenerateInvalidTier(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Generate("broken", Tier(99))
	require.ErrorIs(t, err, ErrInvalidTier)
}

func TestStore_ValidateUnknownToken(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Validate("mk_doesnotexist")
	assert.False(t, ok)
}

func TestStore_RevokeIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Generate("temp", TierFull)
	require.NoError(t, err)

	assert.True(t, store.Revoke(key.Token))
	assert.True(t, store.Revoke(key.Token), "revoking again still reports the key existed")
	assert.False(t, store.Revoke("mk_neverissued"))

	_, ok := store.Validate(key.Token)
	assert.False(t, ok, "revoked key must not validate")
}

func TestStore_ConcurrentValidateCountsEveryCall(t *testing.T) {
	store := newTestStore(t)

	key, err := store.Generate("hot", TierRead)
	require.NoError(t, err)

	const goroutines = 16
	const perGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, ok := store.Validate(key.Token)
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(goroutines*perGoroutine), key.TotalCalls())
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apikeys.json")

	store, err := Open(path, nil)
	require.NoError(t, err)
	key, err := store.Generate("survivor", TierFull)
	require.NoError(t, err)
	revoked, err := store.Generate("casualty", TierRead)
	require.NoError(t, err)
	require.True(t, store.Revoke(revoked.Token))
	require.NoError(t, store.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, ok := reopened.Validate(key.Token)
	require.True(t, ok)
	assert.Equal(t, key.ID, got.ID)
	assert.Equal(t, TierFull, got.Tier)

	_, ok = reopened.Validate(revoked.Token)
	assert.False(t, ok, "revocation must survive a restart")

	// bootstrap admin + survivor + casualty
	assert.Equal(t, 3, reopened.Count())
}

func TestStore_ListOrderedByCreation(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Generate("first", TierRead)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := store.Generate("second", TierRead)
	require.NoError(t, err)

	records := store.List()
	require.Len(t, records, 3)
	assert.Equal(t, DefaultAdminName, records[0].Name)
	assert.Equal(t, first.ID, records[1].ID)
	assert.Equal(t, second.ID, records[2].ID)
}

func TestOpen_CorruptFileQuarantinedAndBootstraps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apikeys.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// The corrupt file is set aside and a fresh admin key minted.
	assert.Equal(t, 1, store.Count())

	matches, err := filepath.Glob(path + ".corrupt.*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestOpen_MissingDirectoryCreatedOnPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "apikeys.json")

	store, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = os.Stat(path)
	require.NoError(t, err, "bootstrap should have persisted through the created directory")
}
