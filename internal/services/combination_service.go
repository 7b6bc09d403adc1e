package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/charlesng35/dabifac/internal/configstore"
	"github.com/charlesng35/dabifac/internal/models"
	"github.com/charlesng35/dabifac/internal/settings"
	"github.com/charlesng35/dabifac/pkg/logger"
)

// ErrCombinationNotFound indicates the requested combination does not exist.
var ErrCombinationNotFound = configstore.ErrNotFound

// CombinationStore is the persistence used by CombinationService.
type CombinationStore interface {
	List(ctx context.Context) ([]models.ConfigRecord, error)
	Save(ctx context.Context, title string, data models.ConfigData) (uint64, error)
	Get(ctx context.Context, id uint64) (models.ConfigRecord, bool, error)
	Delete(ctx context.Context, id uint64) error
}

// CombinationService saves the live settings as named combinations and restores them.
type CombinationService struct {
	store  CombinationStore
	fields []string
	log    *zap.Logger
}

// NewCombinationService constructs the service. An empty fields list uses settings.DefaultFields.
func NewCombinationService(store CombinationStore, fields []string) (*CombinationService, error) {
	if store == nil {
		return nil, errors.New("combination service: store is required")
	}
	fields = normaliseFields(fields)
	if len(fields) == 0 {
		fields = settings.DefaultFields
	}
	return &CombinationService{
		store:  store,
		fields: fields,
		log:    logger.WithModule("combinations"),
	}, nil
}

// Fields returns the settings fields captured by Save.
func (s *CombinationService) Fields() []string {
	return append([]string(nil), s.fields...)
}

// List returns the newest saved combinations.
func (s *CombinationService) List(ctx context.Context) ([]models.ConfigRecord, error) {
	return s.store.List(ensuredContext(ctx))
}

// Save captures the configured fields from surface and stores them under title.
func (s *CombinationService) Save(ctx context.Context, surface settings.Surface, title string) (models.ConfigRecord, error) {
	ctx = ensuredContext(ctx)
	if surface == nil {
		surface = settings.NewMemorySurface(nil)
	}

	id, err := s.store.Save(ctx, title, settings.Capture(surface, s.fields))
	if err != nil {
		return models.ConfigRecord{}, err
	}
	return s.Get(ctx, id)
}

// Get returns one combination.
func (s *CombinationService) Get(ctx context.Context, id uint64) (models.ConfigRecord, error) {
	record, found, err := s.store.Get(ensuredContext(ctx), id)
	if err != nil {
		return models.ConfigRecord{}, err
	}
	if !found {
		return models.ConfigRecord{}, ErrCombinationNotFound
	}
	return record, nil
}

// Restore overwrites surface with the combination's non-empty fields and returns the
// record together with the fields written.
func (s *CombinationService) Restore(ctx context.Context, surface settings.Surface, id uint64) (models.ConfigRecord, []string, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return models.ConfigRecord{}, nil, err
	}
	if surface == nil {
		return models.ConfigRecord{}, nil, errors.New("combination service: settings surface is required")
	}

	applied := settings.Apply(surface, record.Data(), s.fields)
	s.log.Info("combination restored",
		zap.Uint64("id", record.ID),
		zap.String("title", record.Title),
		zap.Strings("fields", applied),
	)
	return record, applied, nil
}

// Delete removes a combination. Missing ids are not an error.
func (s *CombinationService) Delete(ctx context.Context, id uint64) error {
	return s.store.Delete(ensuredContext(ctx), id)
}
