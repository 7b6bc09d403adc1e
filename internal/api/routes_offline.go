package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/dabifac/internal/handlers"
)

func registerOfflineRoutes(api *gin.RouterGroup, handler *handlers.OfflineHandler) {
	offline := api.Group("/offline")
	{
		offline.GET("/status", handler.Status)
		offline.POST("/install", handler.Install)
		offline.POST("/activate", handler.Activate)
	}
}
