package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CachedResource is one request-key to response pair scoped to a snapshot.
type CachedResource struct {
	ID           string                                  `gorm:"primaryKey;size:36" json:"id"`
	SnapshotName string                                  `gorm:"size:191;not null;uniqueIndex:idx_cached_resource_key,priority:1" json:"snapshot_name"`
	RequestKey   string                                  `gorm:"size:512;not null;uniqueIndex:idx_cached_resource_key,priority:2" json:"request_key"`
	Status       int                                     `gorm:"not null" json:"status"`
	Header       datatypes.JSONType[map[string][]string] `json:"header"`
	Body         []byte                                  `json:"-"`
	CreatedAt    time.Time                               `json:"created_at"`
}

// TableName pins the cached resource table name.
func (CachedResource) TableName() string {
	return "asset_cache_entries"
}

// BeforeCreate assigns a UUID when the row has none.
func (r *CachedResource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
