package entities

import (
	"time"
)

// Setting is a single row of the durable key-value store. Every persisted
// value is JSON text except the bare theme string.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known storage keys.
const (
	SettingKeyTheme = "theme"

	// Session state. The bare email key is a legacy duplicate of the session
	// value and is kept in sync with it for older clients.
	SettingKeySession = "session"
	SettingKeyEmail   = "email"

	SettingKeyFavorites = "favorites"
	SettingKeyUsers     = "registered_users"
)
