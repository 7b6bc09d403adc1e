package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins...))
	r.GET("/api/combinations", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func corsRequest(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/combinations", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowsAnyOriginByDefault(t *testing.T) {
	r := corsRouter()

	preflight := corsRequest(r, http.MethodOptions, "https://anywhere.example")
	require.Equal(t, http.StatusNoContent, preflight.Code)
	require.Equal(t, "*", preflight.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, preflight.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	require.Contains(t, preflight.Header().Get("Access-Control-Allow-Headers"), "Content-Type")

	w := corsRequest(r, http.MethodGet, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSRestrictsToListedOrigins(t *testing.T) {
	r := corsRouter("https://dabimastools.github.io/")

	w := corsRequest(r, http.MethodGet, "https://dabimastools.github.io")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "https://dabimastools.github.io", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", w.Header().Get("Vary"))

	denied := corsRequest(r, http.MethodOptions, "https://evil.example")
	require.Equal(t, http.StatusNoContent, denied.Code)
	require.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
}
