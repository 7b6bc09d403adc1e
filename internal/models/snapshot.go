package models

import "time"

// Snapshot records a complete, installed set of cached assets for one version tag.
// A row only exists once every manifest resource has been stored.
type Snapshot struct {
	Name           string    `gorm:"primaryKey;size:191" json:"name"`
	Version        string    `gorm:"size:128;not null" json:"version"`
	ManifestDigest string    `gorm:"size:64" json:"manifest_digest"`
	ResourceCount  int       `gorm:"not null;default:0" json:"resource_count"`
	InstalledAt    time.Time `gorm:"index" json:"installed_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName pins the snapshot table name.
func (Snapshot) TableName() string {
	return "asset_snapshots"
}
