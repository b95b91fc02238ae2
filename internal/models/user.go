package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User is the identity record. The password column always holds a bcrypt
// hash; plaintext never reaches the store.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email    string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password string    `gorm:"not null" json:"-"`

	// Extended registration profile. All optional; derived fields (age,
	// location, phone) are computed at provisioning time.
	FirstName     string         `gorm:"size:50" json:"first_name,omitempty"`
	LastName      string         `gorm:"size:50" json:"last_name,omitempty"`
	Gender        string         `gorm:"size:10" json:"gender,omitempty"`
	DateOfBirth   *time.Time     `json:"dob,omitempty"`
	Age           int            `json:"age,omitempty"`
	Area          string         `gorm:"size:100" json:"area,omitempty"`
	CityID        string         `gorm:"size:50" json:"city_id,omitempty"`
	NationalityID string         `gorm:"size:50" json:"nationality_id,omitempty"`
	Location      datatypes.JSON `json:"location,omitempty"`
	Phone         datatypes.JSON `json:"phone,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
