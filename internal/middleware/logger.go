package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/dabifac/pkg/logger"
)

// LoggerOption tunes the access log.
type LoggerOption func(*accessLog)

type accessLog struct {
	skip map[string]struct{}
}

// WithSkipPaths suppresses access log lines for exact request paths such as probes.
func WithSkipPaths(paths ...string) LoggerOption {
	return func(a *accessLog) {
		for _, p := range paths {
			a.skip[p] = struct{}{}
		}
	}
}

// Logger writes one structured access log line per request. Server errors log
// at error level and client errors at warn.
func Logger(opts ...LoggerOption) gin.HandlerFunc {
	cfg := &accessLog{skip: make(map[string]struct{})}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if _, ok := cfg.skip[path]; ok {
			return
		}

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
		}
		// Asset requests fall through to NoRoute and carry no route template.
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		log := logger.WithModule("http")
		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
