package settings

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/charlesng35/dabifac/internal/database"
	"github.com/charlesng35/dabifac/internal/models"
)

// DefaultFields are the settings captured into a saved combination.
var DefaultFields = []string{
	"dabimasFactor",
	"dabimasFactorCategory",
	"dabimasMemo",
	"dabimasMemoStallion",
	"dabimasMemoBroodmare",
	"dabimasManualInbreed",
}

// Surface is the live key/value settings store that combinations are captured from
// and restored into.
type Surface interface {
	Get(field string) (string, bool)
	Set(field, value string)
}

// MemorySurface is a concurrency-safe in-memory Surface.
type MemorySurface struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySurface copies values into a new surface.
func NewMemorySurface(values map[string]string) *MemorySurface {
	s := &MemorySurface{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get implements Surface.
func (s *MemorySurface) Get(field string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[field]
	return v, ok
}

// Set implements Surface.
func (s *MemorySurface) Set(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[field] = value
}

// Values returns a copy of every stored value.
func (s *MemorySurface) Values() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Capture reads fields from s. Missing fields are recorded as nil.
func Capture(s Surface, fields []string) models.ConfigData {
	data := make(models.ConfigData, len(fields))
	for _, field := range fields {
		if value, ok := s.Get(field); ok {
			v := value
			data[field] = &v
			continue
		}
		data[field] = nil
	}
	return data
}

// Apply overwrites s with the stored values and returns the fields written, sorted.
// Nil and empty values are skipped so restoring never clears a live setting.
// An empty fields list applies every stored field.
func Apply(s Surface, data models.ConfigData, fields []string) []string {
	if len(fields) == 0 {
		fields = make([]string, 0, len(data))
		for field := range data {
			fields = append(fields, field)
		}
	}

	var applied []string
	for _, field := range fields {
		value, ok := data.Value(field)
		if !ok || value == "" {
			continue
		}
		s.Set(field, value)
		applied = append(applied, field)
	}
	sort.Strings(applied)
	return applied
}

// Load reads the persisted live settings restricted to fields.
func Load(ctx context.Context, db *gorm.DB, fields []string) (*MemorySurface, error) {
	all, err := database.ListSettings(ctx, db)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(fields))
	for _, field := range fields {
		if v, ok := all[field]; ok {
			values[field] = v
		}
	}
	return NewMemorySurface(values), nil
}

// Persist writes the values of fields held by s to the live settings table.
func Persist(ctx context.Context, db *gorm.DB, s Surface, fields []string) error {
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		if v, ok := s.Get(field); ok {
			values[field] = v
		}
	}
	if err := database.UpsertSettings(ctx, db, values); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}
