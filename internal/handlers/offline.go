package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/dabifac/internal/offline"
	"github.com/charlesng35/dabifac/pkg/response"
)

// AssetManager is the asset cache lifecycle driven over HTTP.
type AssetManager interface {
	Status(ctx context.Context) (offline.Status, error)
	Install(ctx context.Context) error
	Activate(ctx context.Context) error
	HandleRequest(ctx context.Context, req offline.Request) (*offline.Response, error)
}

// OfflineHandler exposes snapshot status and lifecycle operations.
type OfflineHandler struct {
	manager AssetManager
}

// NewOfflineHandler constructs an offline handler.
func NewOfflineHandler(manager AssetManager) (*OfflineHandler, error) {
	if manager == nil {
		return nil, errors.New("offline handler: manager is required")
	}
	return &OfflineHandler{manager: manager}, nil
}

// Status reports the manager state and stored snapshots.
func (h *OfflineHandler) Status(c *gin.Context) {
	status, err := h.manager.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

// Install fetches and stores the snapshot for the running version. The install is
// detached from client cancellation.
func (h *OfflineHandler) Install(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.manager.Install(ctx); err != nil {
		response.Error(c, err)
		return
	}
	h.Status(c)
}

// Activate evicts stale snapshots and claims clients for the running version.
func (h *OfflineHandler) Activate(c *gin.Context) {
	if err := h.manager.Activate(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	h.Status(c)
}
