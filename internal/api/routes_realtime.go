package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/dabifac/internal/handlers"
	"github.com/charlesng35/dabifac/internal/realtime"
)

func registerRealtimeRoutes(r *gin.Engine, hub *realtime.Hub) {
	if hub == nil {
		return
	}

	handler := handlers.NewRealtimeHandler(hub, realtime.StreamOffline, realtime.StreamCombinations)
	r.GET("/ws", handler.Stream)
	r.GET("/ws/:stream", handler.Stream)
}
