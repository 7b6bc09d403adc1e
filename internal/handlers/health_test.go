package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/dabifac/internal/monitoring"
)

func TestHealthHandlerStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	manager := monitoring.NewHealthManager()
	manager.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("snapshot", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "not activated"}
	}))

	handler := NewHealthHandler(manager)
	router := gin.New()
	router.GET("/health", handler.Health)
	router.GET("/health/live", handler.Live)
	router.GET("/health/ready", handler.Ready)

	rec := serve(t, router, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"up"`)

	rec = serve(t, router, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"degraded"`)
	require.Contains(t, rec.Body.String(), "not activated")

	rec = serve(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "checks")
}

func TestHealthHandlerDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/health/ready", NewHealthHandler(nil).Ready)

	rec := serve(t, router, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthHandlerDown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	manager := monitoring.NewHealthManager()
	manager.RegisterReadiness(monitoring.NewCheck("database", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDown}
	}))
	router := gin.New()
	router.GET("/health/ready", NewHealthHandler(manager).Ready)

	rec := serve(t, router, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
