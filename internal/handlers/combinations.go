package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/dabifac/internal/models"
	"github.com/charlesng35/dabifac/internal/realtime"
	"github.com/charlesng35/dabifac/internal/services"
	"github.com/charlesng35/dabifac/internal/settings"
	appErrors "github.com/charlesng35/dabifac/pkg/errors"
	"github.com/charlesng35/dabifac/pkg/response"
)

const savedAtDisplayLayout = "2006/01/02 15:04"

// Broadcaster publishes realtime events.
type Broadcaster interface {
	BroadcastStream(stream string, message realtime.Message)
}

// CombinationHandler exposes saved combinations over HTTP.
type CombinationHandler struct {
	combinations *services.CombinationService
	settings     *services.SettingsService
	broadcaster  Broadcaster
	limit        int
	location     *time.Location
}

// CombinationOption customises a CombinationHandler.
type CombinationOption func(*CombinationHandler)

// WithBroadcaster publishes saved and deleted events on the combinations stream.
func WithBroadcaster(b Broadcaster) CombinationOption {
	return func(h *CombinationHandler) {
		h.broadcaster = b
	}
}

// WithDisplayLocation sets the time zone used for saved_at_display. Defaults to time.Local.
func WithDisplayLocation(loc *time.Location) CombinationOption {
	return func(h *CombinationHandler) {
		if loc != nil {
			h.location = loc
		}
	}
}

// NewCombinationHandler constructs a combination handler. limit is reported in list metadata.
func NewCombinationHandler(combinations *services.CombinationService, settingsSvc *services.SettingsService, limit int, opts ...CombinationOption) (*CombinationHandler, error) {
	if combinations == nil {
		return nil, errors.New("combination handler: combination service is required")
	}
	if settingsSvc == nil {
		return nil, errors.New("combination handler: settings service is required")
	}
	h := &CombinationHandler{
		combinations: combinations,
		settings:     settingsSvc,
		limit:        limit,
		location:     time.Local,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// CombinationDTO is the HTTP representation of a saved combination.
type CombinationDTO struct {
	ID             uint64            `json:"id"`
	Title          string            `json:"title"`
	SavedAt        time.Time         `json:"saved_at"`
	SavedAtDisplay string            `json:"saved_at_display"`
	Settings       models.ConfigData `json:"settings"`
}

type saveCombinationRequest struct {
	Title    string             `json:"title" validate:"required"`
	Settings map[string]*string `json:"settings"`
}

type restoreCombinationRequest struct {
	Settings map[string]string `json:"settings"`
}

// RestoreResult reports the settings after a restore and which fields were written.
type RestoreResult struct {
	Combination CombinationDTO    `json:"combination"`
	Applied     []string          `json:"applied"`
	Settings    map[string]string `json:"settings"`
}

// List returns the newest saved combinations.
func (h *CombinationHandler) List(c *gin.Context) {
	records, err := h.combinations.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]CombinationDTO, 0, len(records))
	for _, record := range records {
		items = append(items, h.toDTO(record))
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Count: len(items), Limit: h.limit})
}

// Get returns one combination or 404.
func (h *CombinationHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	record, err := h.combinations.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.toDTO(record))
}

// Create saves a combination. Without a settings payload the persisted live settings
// are captured.
func (h *CombinationHandler) Create(c *gin.Context) {
	var req saveCombinationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var surface settings.Surface
	if req.Settings != nil {
		surface = surfaceFromPayload(req.Settings)
	} else {
		loaded, err := h.settings.Load(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		surface = loaded
	}

	record, err := h.combinations.Save(c.Request.Context(), surface, req.Title)
	if err != nil {
		response.Error(c, err)
		return
	}

	dto := h.toDTO(record)
	h.publish(realtime.EventCombinationSaved, dto)
	response.Success(c, http.StatusCreated, dto)
}

// Restore applies a combination. With a settings payload the result is computed against it
// and nothing is persisted; otherwise the persisted live settings are overwritten.
func (h *CombinationHandler) Restore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req restoreCombinationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}

	ctx := c.Request.Context()
	var surface *settings.MemorySurface
	persist := req.Settings == nil
	if persist {
		loaded, err := h.settings.Load(ctx)
		if err != nil {
			response.Error(c, err)
			return
		}
		surface = loaded
	} else {
		surface = settings.NewMemorySurface(req.Settings)
	}

	record, applied, err := h.combinations.Restore(ctx, surface, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if persist {
		if err := h.settings.Persist(ctx, surface); err != nil {
			response.Error(c, err)
			return
		}
	}

	if applied == nil {
		applied = []string{}
	}
	response.Success(c, http.StatusOK, RestoreResult{
		Combination: h.toDTO(record),
		Applied:     applied,
		Settings:    surface.Values(),
	})
}

// Delete removes a combination. Deleting a missing id still answers 204.
func (h *CombinationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.combinations.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	h.publish(realtime.EventCombinationDeleted, gin.H{"id": id})
	response.NoContent(c)
}

func (h *CombinationHandler) toDTO(record models.ConfigRecord) CombinationDTO {
	return CombinationDTO{
		ID:             record.ID,
		Title:          record.Title,
		SavedAt:        record.SavedAt.UTC(),
		SavedAtDisplay: formatSavedAt(record.SavedAt, h.location),
		Settings:       record.Data(),
	}
}

func (h *CombinationHandler) publish(event string, data any) {
	if h.broadcaster == nil {
		return
	}
	h.broadcaster.BroadcastStream(realtime.StreamCombinations, realtime.Message{Event: event, Data: data})
}

// formatSavedAt renders a timestamp as YYYY/MM/DD HH:mm in loc.
func formatSavedAt(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(savedAtDisplayLayout)
}

func surfaceFromPayload(values map[string]*string) *settings.MemorySurface {
	surface := settings.NewMemorySurface(nil)
	for field, value := range values {
		if value != nil {
			surface.Set(field, *value)
		}
	}
	return surface
}
