package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/dabifac/internal/settings"
	apperrors "github.com/charlesng35/dabifac/pkg/errors"
)

// SettingsService reads and writes the persisted live settings.
type SettingsService struct {
	db     *gorm.DB
	fields []string
	known  map[string]struct{}
}

// NewSettingsService constructs the service. An empty fields list uses settings.DefaultFields.
func NewSettingsService(db *gorm.DB, fields []string) (*SettingsService, error) {
	if db == nil {
		return nil, errors.New("settings service: db is required")
	}
	fields = normaliseFields(fields)
	if len(fields) == 0 {
		fields = settings.DefaultFields
	}
	known := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		known[field] = struct{}{}
	}
	return &SettingsService{db: db, fields: append([]string(nil), fields...), known: known}, nil
}

// Load returns the persisted values as a surface.
func (s *SettingsService) Load(ctx context.Context) (*settings.MemorySurface, error) {
	surface, err := settings.Load(ensuredContext(ctx), s.db, s.fields)
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}
	return surface, nil
}

// Persist stores every configured field held by surface.
func (s *SettingsService) Persist(ctx context.Context, surface settings.Surface) error {
	if err := settings.Persist(ensuredContext(ctx), s.db, surface, s.fields); err != nil {
		return apperrors.ErrInternalServer.WithInternal(err)
	}
	return nil
}

// Update merges values into the persisted settings and returns the result.
// Unknown fields are rejected.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) (map[string]string, error) {
	var unknown []string
	for field := range values {
		if _, ok := s.known[strings.TrimSpace(field)]; !ok {
			unknown = append(unknown, field)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown settings fields: %s", strings.Join(unknown, ", ")))
	}

	surface, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for field, value := range values {
		surface.Set(strings.TrimSpace(field), value)
	}
	if err := s.Persist(ctx, surface); err != nil {
		return nil, err
	}
	return surface.Values(), nil
}
