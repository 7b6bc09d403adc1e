package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/dabifac/internal/handlers"
)

func registerCombinationRoutes(api *gin.RouterGroup, deps Dependencies) error {
	var opts []handlers.CombinationOption
	if deps.Hub != nil {
		opts = append(opts, handlers.WithBroadcaster(deps.Hub))
	}

	handler, err := handlers.NewCombinationHandler(deps.Combinations, deps.Settings, deps.ListLimit, opts...)
	if err != nil {
		return err
	}

	combinations := api.Group("/combinations")
	{
		combinations.GET("", handler.List)
		combinations.POST("", handler.Create)
		combinations.GET("/:id", handler.Get)
		combinations.DELETE("/:id", handler.Delete)
		combinations.POST("/:id/restore", handler.Restore)
	}
	return nil
}
