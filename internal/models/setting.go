package models

import "time"

// Setting is one field of the persisted live settings surface.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:setting_key;size:191" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the settings table name.
func (Setting) TableName() string {
	return "settings"
}
