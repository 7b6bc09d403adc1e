package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/dabifac/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dabifac.sqlite")

	db, err := Open(Config{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))
	require.FileExists(t, path)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestMigrateCreatesAssetAndSettingsTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))

	for _, model := range []any{&models.Snapshot{}, &models.CachedResource{}, &models.Setting{}} {
		require.True(t, db.Migrator().HasTable(model), "expected table for %T", model)
	}
	require.True(t, db.Migrator().HasIndex(&models.CachedResource{}, "idx_cached_resource_key"))
}

func TestMigrateRejectsNilHandle(t *testing.T) {
	require.Error(t, Migrate(nil))
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Close(db)
	})

	return db
}
