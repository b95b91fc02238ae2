package models

import "time"

// RevokedToken is a tombstone keyed by the exact signed access-token string.
// The primary key makes a second revocation of the same token fail on insert,
// which is the serialization point for concurrent logouts.
type RevokedToken struct {
	Token     string    `gorm:"primaryKey" json:"-"`
	RevokedAt time.Time `gorm:"autoCreateTime" json:"revoked_at"`
}
