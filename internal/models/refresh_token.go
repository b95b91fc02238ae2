package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents one live session grant: an opaque refresh value
// paired with the signed access token it was issued alongside. Rotation
// deletes the old record and inserts a new one in a single transaction, so at
// most one record ever validates a given token value.
type RefreshToken struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	AccessToken string    `gorm:"not null;index" json:"-"`
	Token       string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
}
