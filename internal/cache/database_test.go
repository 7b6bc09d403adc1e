package cache_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/dabifac/internal/cache"
	"github.com/charlesng35/dabifac/internal/database/testutil"
)

func newStore(t *testing.T) *cache.DatabaseStore {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := cache.NewDatabaseStore(db)
	require.NotNil(t, store)
	return store
}

func entry(key, body string) cache.Entry {
	return cache.Entry{
		Key:    key,
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"text/plain"}},
		Body:   []byte(body),
	}
}

func TestDatabaseStorePutSnapshotAndMatch(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	installedAt := time.Date(2025, 4, 6, 12, 0, 0, 0, time.UTC)
	err := store.PutSnapshot(ctx, cache.SnapshotInfo{
		Name:           "dabimas-factor@v1",
		Version:        "v1",
		ManifestDigest: "digest",
		InstalledAt:    installedAt,
	}, []cache.Entry{entry("GET https://example.test/a.js", "a"), entry("GET https://example.test/b.css", "b")})
	require.NoError(t, err)

	info, ok, err := store.Lookup(ctx, "dabimas-factor@v1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, info.ResourceCount)
	require.Equal(t, "digest", info.ManifestDigest)
	require.True(t, installedAt.Equal(info.InstalledAt))

	got, ok, err := store.Match(ctx, "dabimas-factor@v1", "GET https://example.test/a.js")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("a"), got.Body)
	require.Equal(t, "text/plain", got.Header.Get("Content-Type"))

	_, ok, err = store.Match(ctx, "dabimas-factor@v1", "GET https://example.test/missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStorePutSnapshotReplacesContent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	info := cache.SnapshotInfo{Name: "app@v1", Version: "v1"}

	require.NoError(t, store.PutSnapshot(ctx, info, []cache.Entry{entry("k1", "old"), entry("k2", "old")}))
	require.NoError(t, store.PutSnapshot(ctx, info, []cache.Entry{entry("k1", "new")}))

	got, ok, err := store.Match(ctx, "app@v1", "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("new"), got.Body)

	_, ok, err = store.Match(ctx, "app@v1", "k2")
	require.NoError(t, err)
	require.False(t, ok)

	snapshots, err := store.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.Equal(t, 1, snapshots[0].ResourceCount)
}

func TestDatabaseStorePutKeepsFirstWrite(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutSnapshot(ctx, cache.SnapshotInfo{Name: "app@v1"}, nil))

	written, err := store.Put(ctx, "app@v1", entry("k", "first"))
	require.NoError(t, err)
	require.True(t, written)

	written, err = store.Put(ctx, "app@v1", entry("k", "second"))
	require.NoError(t, err)
	require.False(t, written)

	got, ok, err := store.Match(ctx, "app@v1", "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("first"), got.Body)
}

func TestDatabaseStorePutRequiresSnapshot(t *testing.T) {
	store := newStore(t)

	_, err := store.Put(context.Background(), "ghost@v0", entry("k", "v"))
	require.ErrorIs(t, err, cache.ErrSnapshotNotFound)
}

func TestDatabaseStoreDeleteSnapshot(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutSnapshot(ctx, cache.SnapshotInfo{Name: "app@v1"}, []cache.Entry{entry("k", "v")}))
	require.NoError(t, store.PutSnapshot(ctx, cache.SnapshotInfo{Name: "app@v2"}, []cache.Entry{entry("k", "v2")}))

	existed, err := store.DeleteSnapshot(ctx, "app@v1")
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = store.DeleteSnapshot(ctx, "app@v1")
	require.NoError(t, err)
	require.False(t, existed)

	_, ok, err := store.Match(ctx, "app@v1", "k")
	require.NoError(t, err)
	require.False(t, ok)

	snapshots, err := store.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.Equal(t, "app@v2", snapshots[0].Name)
}

func TestDatabaseStorePruneOrphans(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := cache.NewDatabaseStore(db)
	ctx := context.Background()

	require.NoError(t, store.PutSnapshot(ctx, cache.SnapshotInfo{Name: "app@v1"}, []cache.Entry{entry("k1", "v"), entry("k2", "v")}))
	require.NoError(t, db.Exec("DELETE FROM asset_snapshots WHERE name = ?", "app@v1").Error)

	removed, err := store.PruneOrphans(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)
}

func TestNewDatabaseStoreNil(t *testing.T) {
	require.Nil(t, cache.NewDatabaseStore(nil))

	var store *cache.DatabaseStore
	_, err := store.Snapshots(context.Background())
	require.Error(t, err)
}
