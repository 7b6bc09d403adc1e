package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/dabifac/internal/models"
)

// GetSetting retrieves a live setting by key. The boolean is false when the key is unset.
func GetSetting(ctx context.Context, db *gorm.DB, key string) (string, bool, error) {
	if db == nil {
		return "", false, fmt.Errorf("settings: db is nil")
	}

	var setting models.Setting
	err := db.WithContext(ctx).Take(&setting, "setting_key = ?", key).Error
	if err == nil {
		return setting.Value, true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	return "", false, fmt.Errorf("settings: get %q: %w", key, err)
}

// ListSettings returns every stored setting keyed by name.
func ListSettings(ctx context.Context, db *gorm.DB) (map[string]string, error) {
	if db == nil {
		return nil, fmt.Errorf("settings: db is nil")
	}

	var rows []models.Setting
	if err := db.WithContext(ctx).Order("setting_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("settings: list: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// UpsertSettings stores or replaces the supplied values in a single transaction.
func UpsertSettings(ctx context.Context, db *gorm.DB, values map[string]string) error {
	if db == nil {
		return fmt.Errorf("settings: db is nil")
	}
	if len(values) == 0 {
		return nil
	}

	rows := make([]models.Setting, 0, len(values))
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("settings: key is required")
		}
		rows = append(rows, models.Setting{Key: key, Value: value})
	}

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("settings: upsert: %w", err)
	}
	return nil
}
