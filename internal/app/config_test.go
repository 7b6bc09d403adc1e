package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/dabifac/internal/configstore"
	"github.com/charlesng35/dabifac/internal/database"
	"github.com/charlesng35/dabifac/internal/settings"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "console", cfg.Server.LogEncoding)
	require.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, []string{"https://dabimastools.github.io"}, cfg.Server.CORSOrigins)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Postgres.Enabled)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)

	require.Equal(t, "dabimas-factor", cfg.Offline.Name)
	require.Equal(t, "v20250501-02", cfg.Offline.Version)
	require.Equal(t, "/tools/dabimasFactor", cfg.Offline.MountPath)
	require.Equal(t, []string{"index.html", "json/dabimasFactor.json"}, cfg.Offline.Manifest)
	require.Equal(t, 2, cfg.Offline.FetchConcurrency)
	require.Equal(t, 5*time.Second, cfg.Offline.FetchTimeout)
	require.Equal(t, 5, cfg.Offline.Retry.MaxAttempts)
	require.Equal(t, 50*time.Millisecond, cfg.Offline.Retry.InitialInterval)
	require.Equal(t, 2*time.Second, cfg.Offline.Retry.MaxInterval)
	require.False(t, cfg.Offline.SingleFlight)
	require.True(t, cfg.Offline.InstallOnStart)
	require.Equal(t, "@every 30m", cfg.Offline.SweepSchedule)

	require.Equal(t, "DabifacCombinationDB", cfg.Combinations.StoreName)
	require.Equal(t, 20, cfg.Combinations.ListLimit)
	require.Equal(t, 12, cfg.Combinations.TitleMaxLength)
	require.Equal(t, []string{"dabimasFactor", "dabimasMemo"}, cfg.Combinations.Fields)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, 120, cfg.Server.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)
	require.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "v20250406-01", cfg.Offline.Version)
	require.Equal(t, DefaultManifest, cfg.Offline.Manifest)
	require.Len(t, cfg.Offline.Manifest, 38)
	require.True(t, cfg.Offline.SingleFlight)
	require.Equal(t, 15, cfg.Combinations.ListLimit)
	require.Equal(t, 10, cfg.Combinations.TitleMaxLength)
	require.Equal(t, settings.DefaultFields, cfg.Combinations.Fields)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("DABIFAC_SERVER_PORT", "7070")
	t.Setenv("DABIFAC_OFFLINE_VERSION", "v20990101-01")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "v20990101-01", cfg.Offline.Version)
}

func TestLoadConfigFile(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)

	_, err = LoadConfigFile(filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfigPath(t *testing.T) {
	cfg, err := LoadConfigPath("testdata")
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)

	cfg, err = LoadConfigPath(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)

	_, err = LoadConfigPath(filepath.Join("testdata", "missing"))
	require.ErrorContains(t, err, "does not exist")
}

func TestConfigAdapters(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, database.Config{
		Driver:   "postgres",
		Host:     "db.example.com",
		Port:     5433,
		Name:     "dabifac",
		User:     "dabifac",
		Password: "secret",
	}, cfg.Database.ConnectionConfig())

	managerCfg := cfg.Offline.ManagerConfig()
	require.Equal(t, "dabimas-factor@v20250501-02", managerCfg.Tag())
	require.Equal(t, 5, managerCfg.Retry.MaxAttempts)
	require.False(t, managerCfg.SingleFlight)

	require.Equal(t, configstore.Options{
		Name:           "DabifacCombinationDB",
		ListLimit:      20,
		TitleMaxLength: 12,
	}, cfg.Combinations.StoreOptions())
}

func TestDatabaseConnectionConfigDefaultsToSQLite(t *testing.T) {
	cfg := DatabaseConfig{Path: " ./data/x.sqlite "}
	require.Equal(t, database.Config{Driver: "sqlite", Path: "./data/x.sqlite"}, cfg.ConnectionConfig())
}

func TestDatabaseConnectionConfigIgnoresPathForServerDrivers(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: "MySQL",
		Path:   "./data/dabifac.sqlite",
		MySQL:  DBAuthConfig{Host: "db.example.com", Port: 3306, Database: "dabifac", Username: "factor"},
	}
	require.Equal(t, database.Config{
		Driver: "mysql",
		Host:   "db.example.com",
		Port:   3306,
		Name:   "dabifac",
		User:   "factor",
	}, cfg.ConnectionConfig())
}
