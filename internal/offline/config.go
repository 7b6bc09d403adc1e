package offline

import (
	"errors"
	"strings"
	"time"
)

const (
	defaultFetchConcurrency = 6
	defaultRetryInitial     = 200 * time.Millisecond
	defaultRetryMax         = 2 * time.Second
)

// Config describes the asset snapshot the manager installs and serves.
type Config struct {
	Name             string
	Version          string
	WorkerURL        string
	Manifest         []string
	FetchConcurrency int
	Retry            RetryPolicy
	SingleFlight     bool
}

// RetryPolicy bounds retries of transient install fetches. MaxAttempts <= 1 disables retry.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Tag returns the snapshot name for this configuration.
func (c Config) Tag() string {
	return c.Name + "@" + c.Version
}

func (c Config) withDefaults() Config {
	c.Name = strings.TrimSpace(c.Name)
	c.Version = strings.TrimSpace(c.Version)
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = defaultFetchConcurrency
	}
	if c.Retry.InitialInterval <= 0 {
		c.Retry.InitialInterval = defaultRetryInitial
	}
	if c.Retry.MaxInterval <= 0 {
		c.Retry.MaxInterval = defaultRetryMax
	}
	return c
}

func (c Config) validate() error {
	if c.Name == "" {
		return errors.New("offline: snapshot name is required")
	}
	if c.Version == "" {
		return errors.New("offline: snapshot version is required")
	}
	if strings.Contains(c.Name, "@") {
		return errors.New("offline: snapshot name must not contain '@'")
	}
	return nil
}
