package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/dabifac/internal/app"
	"github.com/charlesng35/dabifac/internal/handlers"
	"github.com/charlesng35/dabifac/internal/middleware"
	"github.com/charlesng35/dabifac/internal/monitoring"
	"github.com/charlesng35/dabifac/internal/realtime"
	"github.com/charlesng35/dabifac/internal/services"
)

// Dependencies are the long-lived components served by the router.
type Dependencies struct {
	Assets       handlers.AssetManager
	Combinations *services.CombinationService
	// ListLimit is reported as list metadata; it is the store's effective cap.
	ListLimit    int
	Settings     *services.SettingsService
	Hub          *realtime.Hub
	Health       *monitoring.HealthManager
	RateStore    middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Assets == nil {
		return nil, fmt.Errorf("asset manager must be provided")
	}
	if deps.Combinations == nil || deps.Settings == nil {
		return nil, fmt.Errorf("combination and settings services must be provided")
	}

	metricsEndpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if metricsEndpoint == "" {
		metricsEndpoint = "/metrics"
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(middleware.WithSkipPaths("/health/live", metricsEndpoint)))
	r.Use(middleware.Metrics(metricsEndpoint))

	api := r.Group("/api")
	api.Use(middleware.SecurityHeaders())
	api.Use(middleware.CORS(cfg.Server.CORSOrigins...))
	api.Use(middleware.RateLimit(deps.RateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	if err := registerCombinationRoutes(api, deps); err != nil {
		return nil, err
	}
	if err := registerSettingsRoutes(api, deps.Settings); err != nil {
		return nil, err
	}

	offlineHandler, err := handlers.NewOfflineHandler(deps.Assets)
	if err != nil {
		return nil, err
	}
	registerOfflineRoutes(api, offlineHandler)

	registerRealtimeRoutes(r, deps.Hub)

	var health *monitoring.HealthManager
	if cfg.Monitoring.Health.Enabled {
		health = deps.Health
	}
	registerHealthRoutes(r, handlers.NewHealthHandler(health))

	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(metricsEndpoint, gin.WrapH(promhttp.Handler()))
	}

	// Everything else under the mount path is answered from the asset cache.
	assets, err := handlers.NewAssetHandler(deps.Assets, cfg.Offline.MountPath, cfg.Offline.WorkerURL, cfg.Offline.IndexDocument)
	if err != nil {
		return nil, fmt.Errorf("asset handler: %w", err)
	}
	r.NoRoute(assets.NoRoute(middleware.NotFoundHandler))

	return r, nil
}
