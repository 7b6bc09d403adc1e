package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/dabifac/internal/handlers"
	"github.com/charlesng35/dabifac/internal/services"
)

func registerSettingsRoutes(api *gin.RouterGroup, service *services.SettingsService) error {
	handler, err := handlers.NewSettingsHandler(service)
	if err != nil {
		return err
	}

	api.GET("/settings", handler.Get)
	api.PUT("/settings", handler.Update)
	return nil
}
