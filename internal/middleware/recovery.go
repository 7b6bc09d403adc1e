package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/dabifac/pkg/errors"
	"github.com/charlesng35/dabifac/pkg/logger"
	"github.com/charlesng35/dabifac/pkg/response"
)

// Recovery turns a handler panic into a 500 error envelope. When the handler
// already started streaming a cached asset body the connection is only aborted.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}

			logger.WithModule("http").Error("handler panic",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.Error(c, errors.ErrInternalServer)
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown API routes and paths outside the asset mount.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.ErrNotFound.WithMessage(
		fmt.Sprintf("%s %s not found", c.Request.Method, c.Request.URL.Path),
	))
}
