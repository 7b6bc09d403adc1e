package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConfigData holds the named settings fields captured when a configuration is saved.
// A nil value records a field that was unset at save time.
type ConfigData map[string]*string

// Clone returns a deep copy that shares no storage with the receiver.
func (d ConfigData) Clone() ConfigData {
	if d == nil {
		return ConfigData{}
	}
	out := make(ConfigData, len(d))
	for field, value := range d {
		if value == nil {
			out[field] = nil
			continue
		}
		v := *value
		out[field] = &v
	}
	return out
}

// Value returns the string stored for field and whether it was set.
func (d ConfigData) Value(field string) (string, bool) {
	value, ok := d[field]
	if !ok || value == nil {
		return "", false
	}
	return *value, true
}

// ConfigRecord is one saved, named, immutable user configuration.
type ConfigRecord struct {
	ID         uint64                         `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string                         `gorm:"size:64;not null" json:"title"`
	SavedAt    time.Time                      `gorm:"index:idx_configs_saved_at;not null" json:"savedAt"`
	ConfigData datatypes.JSONType[ConfigData] `gorm:"not null" json:"configData"`
}

// TableName returns the collection name used by the configuration store.
func (ConfigRecord) TableName() string {
	return "configs"
}

// Data returns a deep copy of the stored configuration fields.
func (r ConfigRecord) Data() ConfigData {
	return r.ConfigData.Data().Clone()
}
