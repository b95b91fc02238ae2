package models

import "time"

// PasswordRecovery is the single outstanding forgot-password request for an
// email. A new request upserts over the previous one, invalidating it; a
// successful reset deletes the row in the same transaction as the password
// update.
type PasswordRecovery struct {
	Email     string    `gorm:"primaryKey;size:255" json:"email"`
	TokenHash string    `gorm:"not null" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
