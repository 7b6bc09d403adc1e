package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/charlesng35/dabifac/internal/settings"
)

// Config represents the runtime configuration for the dabifac backend.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Offline      OfflineConfig      `mapstructure:"offline"`
	Combinations CombinationsConfig `mapstructure:"combinations"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int             `mapstructure:"port"`
	LogLevel        string          `mapstructure:"log_level"`
	LogEncoding     string          `mapstructure:"log_encoding"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
	CORSOrigins     []string        `mapstructure:"cors_origins"`
}

// RateLimitConfig bounds API requests per client and path. Zero requests disables limiting.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// OfflineConfig describes the versioned asset snapshot and how requests reach it.
type OfflineConfig struct {
	Name             string        `mapstructure:"name"`
	Version          string        `mapstructure:"version"`
	WorkerURL        string        `mapstructure:"worker_url"`
	MountPath        string        `mapstructure:"mount_path"`
	IndexDocument    string        `mapstructure:"index_document"`
	Manifest         []string      `mapstructure:"manifest"`
	FetchConcurrency int           `mapstructure:"fetch_concurrency"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	Retry            RetryConfig   `mapstructure:"retry"`
	SingleFlight     bool          `mapstructure:"single_flight"`
	InstallOnStart   bool          `mapstructure:"install_on_start"`
	SweepSchedule    string        `mapstructure:"sweep_schedule"`
}

// RetryConfig bounds retries of transient install fetches.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// CombinationsConfig configures the saved combination store.
type CombinationsConfig struct {
	StoreName      string   `mapstructure:"store_name"`
	ListLimit      int      `mapstructure:"list_limit"`
	TitleMaxLength int      `mapstructure:"title_max_length"`
	Fields         []string `mapstructure:"fields"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	return load(v)
}

// LoadConfigFile reads configuration from an explicit file path.
func LoadConfigFile(file string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigFile(file)
	return load(v)
}

// LoadConfigPath loads from a directory containing config.yaml, an explicit file, or the
// default search path when path is empty.
func LoadConfigPath(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return LoadConfig()
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return LoadConfig(path)
	case err == nil:
		return LoadConfigFile(path)
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config path %q does not exist", path)
	default:
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("DABIFAC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_encoding", "json")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit.requests", 120)
	v.SetDefault("server.rate_limit.window", "1m")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/dabifac.sqlite")

	v.SetDefault("offline.name", "dabimas-factor")
	v.SetDefault("offline.version", "v20250406-01")
	v.SetDefault("offline.worker_url", "https://dabimastools.github.io/dabimasFactor/service-worker.js")
	v.SetDefault("offline.mount_path", "/dabimasFactor/")
	v.SetDefault("offline.index_document", "index.html")
	v.SetDefault("offline.manifest", DefaultManifest)
	v.SetDefault("offline.fetch_concurrency", 6)
	v.SetDefault("offline.fetch_timeout", "30s")
	v.SetDefault("offline.retry.max_attempts", 3)
	v.SetDefault("offline.retry.initial_interval", "200ms")
	v.SetDefault("offline.retry.max_interval", "2s")
	v.SetDefault("offline.single_flight", true)
	v.SetDefault("offline.install_on_start", true)
	v.SetDefault("offline.sweep_schedule", "@every 1h")

	v.SetDefault("combinations.store_name", "DabifacCombinationDB")
	v.SetDefault("combinations.list_limit", 15)
	v.SetDefault("combinations.title_max_length", 10)
	v.SetDefault("combinations.fields", settings.DefaultFields)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
