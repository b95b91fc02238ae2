package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceToken associates a push-notification device with a user. Upserted in
// the same transaction as the refresh-token insert when a login carries
// device metadata.
type DeviceToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_device_user_token" json:"user_id"`
	Token     string    `gorm:"not null;size:255;uniqueIndex:idx_device_user_token" json:"-"`
	Type      string    `gorm:"size:20" json:"type"`
	LoggedIn  bool      `gorm:"default:true" json:"logged_in"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
