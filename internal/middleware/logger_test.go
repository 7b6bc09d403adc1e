package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/charlesng35/dabifac/pkg/logger"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(nil) })
	return logs
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := observeLogs(t)

	r := gin.New()
	r.Use(Logger(WithSkipPaths("/health/live")))
	r.GET("/api/combinations/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "found")
	})
	r.GET("/health/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.NoRoute(func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for _, target := range []string{"/api/combinations/7?fields=title", "/health/live", "/app/missing.js"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0]
	require.Equal(t, zapcore.InfoLevel, first.Level)
	fields := first.ContextMap()
	require.Equal(t, "http", fields["module"])
	require.Equal(t, "/api/combinations/7", fields["path"])
	require.Equal(t, "/api/combinations/:id", fields["route"])
	require.Equal(t, "fields=title", fields["query"])
	require.EqualValues(t, 5, fields["bytes"])

	second := entries[1]
	require.Equal(t, zapcore.WarnLevel, second.Level)
	require.NotContains(t, second.ContextMap(), "route")
}

func TestLoggerMiddlewareLogsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := observeLogs(t)

	r := gin.New()
	r.Use(Logger())
	r.POST("/api/offline/install", func(c *gin.Context) {
		_ = c.Error(http.ErrHandlerTimeout)
		c.Status(http.StatusBadGateway)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/offline/install", nil))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	require.Contains(t, entries[0].ContextMap()["errors"], "timeout")
}
