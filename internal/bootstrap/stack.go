// Package bootstrap wires the long-lived components shared by the server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/dabifac/internal/api"
	"github.com/charlesng35/dabifac/internal/app"
	"github.com/charlesng35/dabifac/internal/app/maintenance"
	"github.com/charlesng35/dabifac/internal/cache"
	"github.com/charlesng35/dabifac/internal/configstore"
	"github.com/charlesng35/dabifac/internal/database"
	"github.com/charlesng35/dabifac/internal/middleware"
	"github.com/charlesng35/dabifac/internal/models"
	"github.com/charlesng35/dabifac/internal/monitoring"
	"github.com/charlesng35/dabifac/internal/monitoring/checks"
	"github.com/charlesng35/dabifac/internal/offline"
	"github.com/charlesng35/dabifac/internal/realtime"
	"github.com/charlesng35/dabifac/internal/services"
	"github.com/charlesng35/dabifac/pkg/logger"
)

const rateStorePruneSchedule = "@every 5m"

// Stack bundles the components built from one configuration.
type Stack struct {
	Config       *app.Config
	DB           *gorm.DB
	Cache        *cache.DatabaseStore
	Assets       *offline.Manager
	Configs      *configstore.Store
	Combinations *services.CombinationService
	Settings     *services.SettingsService
	Hub          *realtime.Hub
	Jobs         *monitoring.JobTracker
	RateStore    *middleware.MemoryRateStore
	Cleaner      *maintenance.Cleaner

	ownsDB         bool
	cleanerStarted bool
	log            *zap.Logger
}

// Option customises New.
type Option func(*options)

type options struct {
	db      *gorm.DB
	fetcher offline.Fetcher
}

// WithDatabase uses an already opened handle instead of opening cfg.Database.
// The handle is not closed on Shutdown.
func WithDatabase(db *gorm.DB) Option {
	return func(o *options) {
		o.db = db
	}
}

// WithFetcher replaces the HTTP fetcher used to reach the asset origin.
func WithFetcher(fetcher offline.Fetcher) Option {
	return func(o *options) {
		o.fetcher = fetcher
	}
}

// New opens storage and constructs every service. Nothing is started.
func New(ctx context.Context, cfg *app.Config, opts ...Option) (*Stack, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	stack := &Stack{Config: cfg, log: logger.WithModule("bootstrap")}
	success := false
	defer func() {
		if !success {
			stack.Shutdown(context.Background())
		}
	}()

	var err error
	if o.db != nil {
		stack.DB = o.db
	} else {
		if stack.DB, err = openDatabase(cfg); err != nil {
			return nil, err
		}
		stack.ownsDB = true
	}
	if err := database.Migrate(stack.DB); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	stack.Cache = cache.NewDatabaseStore(stack.DB)
	stack.Hub = realtime.NewHub(
		realtime.WithAllowedOrigins(cfg.Server.CORSOrigins...),
		realtime.WithRetainedStreams(realtime.StreamOffline),
	)

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = offline.NewHTTPFetcher(cfg.Offline.FetchTimeout)
	}
	stack.Assets, err = offline.NewManager(cfg.Offline.ManagerConfig(), stack.Cache, fetcher,
		offline.WithNotifier(realtime.NewOfflineNotifier(stack.Hub)))
	if err != nil {
		return nil, fmt.Errorf("initialise asset cache: %w", err)
	}

	stack.Configs, err = configstore.Open(ctx, stack.DB, cfg.Combinations.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open combination store: %w", err)
	}
	stack.Combinations, err = services.NewCombinationService(stack.Configs, cfg.Combinations.Fields)
	if err != nil {
		return nil, fmt.Errorf("initialise combination service: %w", err)
	}
	stack.Settings, err = services.NewSettingsService(stack.DB, cfg.Combinations.Fields)
	if err != nil {
		return nil, fmt.Errorf("initialise settings service: %w", err)
	}

	stack.Jobs = monitoring.NewJobTracker()
	stack.RateStore = middleware.NewMemoryRateStore()
	stack.Cleaner = maintenance.NewCleaner(stack.Assets, stack.Cache,
		maintenance.WithSweepSchedule(cfg.Offline.SweepSchedule),
		maintenance.WithRecorder(stack.Jobs),
		maintenance.WithTask(maintenance.Task{
			Name:     "rate_limit_prune",
			Schedule: rateStorePruneSchedule,
			Run: func(context.Context) error {
				stack.RateStore.Prune()
				return nil
			},
		}),
	)

	success = true
	return stack, nil
}

// HealthManager registers the liveness and readiness probes for the stack.
func (s *Stack) HealthManager() *monitoring.HealthManager {
	manager := monitoring.NewHealthManager()
	manager.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(checks.Database(s.DB, 0,
		&models.Snapshot{}, &models.CachedResource{}, &models.Setting{}, &models.ConfigRecord{},
	))
	manager.RegisterReadiness(checks.Snapshot(s.Assets))
	manager.RegisterReadiness(checks.Maintenance(s.Jobs, 0))
	return manager
}

// Router builds the HTTP router over the stack.
func (s *Stack) Router() (*gin.Engine, error) {
	return api.NewRouter(s.Config, api.Dependencies{
		Assets:       s.Assets,
		Combinations: s.Combinations,
		ListLimit:    s.Configs.Options().ListLimit,
		Settings:     s.Settings,
		Hub:          s.Hub,
		Health:       s.HealthManager(),
		RateStore:    s.RateStore,
	})
}

// StartMaintenance schedules the background jobs.
func (s *Stack) StartMaintenance() error {
	if err := s.Cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	s.cleanerStarted = true
	return nil
}

// StartAssets resumes or installs the running version and activates it.
func (s *Stack) StartAssets(ctx context.Context) error {
	start := time.Now()
	if err := s.Assets.Start(ctx); err != nil {
		return err
	}
	s.log.Info("asset snapshot active",
		zap.String("tag", s.Assets.Tag()),
		zap.Int("resources", len(s.Assets.Resources())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Shutdown disconnects realtime clients and stops background jobs before
// releasing storage. A started cleaner gets one final pass.
func (s *Stack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs error
	if s.Hub != nil {
		s.Hub.Close()
	}
	if s.Cleaner != nil && s.cleanerStarted {
		stopCtx := s.Cleaner.Stop()
		<-stopCtx.Done()
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			s.log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil && s.ownsDB {
		if err := database.Close(s.DB); err != nil {
			s.log.Warn("failed to close database", zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func openDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

// ConfigureGinMode keeps gin quiet unless GIN_DEBUG=true.
func ConfigureGinMode() {
	if debug, _ := os.LookupEnv("GIN_DEBUG"); strings.TrimSpace(debug) != "true" {
		gin.SetMode(gin.ReleaseMode)
	}
}
