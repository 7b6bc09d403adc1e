package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/dabifac/internal/services"
	"github.com/charlesng35/dabifac/pkg/response"
)

// SettingsHandler exposes the persisted live settings.
type SettingsHandler struct {
	service *services.SettingsService
}

// NewSettingsHandler constructs a settings handler.
func NewSettingsHandler(service *services.SettingsService) (*SettingsHandler, error) {
	if service == nil {
		return nil, errors.New("settings handler: service is required")
	}
	return &SettingsHandler{service: service}, nil
}

type updateSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required"`
}

// Get returns every stored settings field.
func (h *SettingsHandler) Get(c *gin.Context) {
	surface, err := h.service.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, surface.Values())
}

// Update merges the payload into the stored settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	values, err := h.service.Update(c.Request.Context(), req.Settings)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, values)
}
