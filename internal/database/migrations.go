package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/dabifac/internal/models"
)

// AutoMigrate creates or updates the asset snapshot and live settings tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Snapshot{},
		&models.CachedResource{},
		&models.Setting{},
	)
}
