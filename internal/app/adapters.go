package app

import (
	"strings"

	"github.com/charlesng35/dabifac/internal/configstore"
	"github.com/charlesng35/dabifac/internal/database"
	"github.com/charlesng35/dabifac/internal/offline"
)

// ConnectionConfig converts the database section into the database package representation.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		DSN:    strings.TrimSpace(c.DSN),
	}

	// Path only names a sqlite file; the default must not leak into server drivers.
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		dbCfg.Path = strings.TrimSpace(c.Path)
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(c.Postgres.Host)
		dbCfg.Port = c.Postgres.Port
		dbCfg.Name = strings.TrimSpace(c.Postgres.Database)
		dbCfg.User = strings.TrimSpace(c.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(c.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(c.MySQL.Host)
		dbCfg.Port = c.MySQL.Port
		dbCfg.Name = strings.TrimSpace(c.MySQL.Database)
		dbCfg.User = strings.TrimSpace(c.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(c.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

// ManagerConfig converts the offline section into the asset cache manager configuration.
func (c OfflineConfig) ManagerConfig() offline.Config {
	return offline.Config{
		Name:             strings.TrimSpace(c.Name),
		Version:          strings.TrimSpace(c.Version),
		WorkerURL:        strings.TrimSpace(c.WorkerURL),
		Manifest:         trimAll(c.Manifest),
		FetchConcurrency: c.FetchConcurrency,
		Retry: offline.RetryPolicy{
			MaxAttempts:     c.Retry.MaxAttempts,
			InitialInterval: c.Retry.InitialInterval,
			MaxInterval:     c.Retry.MaxInterval,
		},
		SingleFlight: c.SingleFlight,
	}
}

// StoreOptions converts the combinations section into configuration store options.
func (c CombinationsConfig) StoreOptions() configstore.Options {
	return configstore.Options{
		Name:           strings.TrimSpace(c.StoreName),
		ListLimit:      c.ListLimit,
		TitleMaxLength: c.TitleMaxLength,
	}
}
