package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeadersOnAPIGroupOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	api := r.Group("/api")
	api.Use(SecurityHeaders())
	api.GET("/settings", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	r.GET("/app/index.html", func(c *gin.Context) {
		c.Header("Cache-Control", "max-age=60")
		c.String(http.StatusOK, "<html>")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.Equal(t, APIContentSecurityPolicy, w.Header().Get("Content-Security-Policy"))
	require.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	require.Equal(t, "same-site", w.Header().Get("Cross-Origin-Resource-Policy"))
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	asset := httptest.NewRecorder()
	r.ServeHTTP(asset, httptest.NewRequest(http.MethodGet, "/app/index.html", nil))
	require.Equal(t, "max-age=60", asset.Header().Get("Cache-Control"))
	require.Empty(t, asset.Header().Get("Content-Security-Policy"))
}
