package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string     `gorm:"column:name;not null" json:"name"`
	Email         string     `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Phone         *string    `gorm:"column:phone" json:"phoneNumber,omitempty"`
	PhoneVerified bool       `gorm:"column:phone_verified;not null;default:false" json:"phoneNumberVerified"`
	LastLoginAt   *time.Time `gorm:"column:last_login_at" json:"-"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
