package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a storefront account. PinHash is never serialized.
type User struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	PhoneNumber string `gorm:"size:8;uniqueIndex;not null" json:"phone_number"`
	PinHash     string `json:"-"`
	PinSet      bool   `gorm:"not null;default:false" json:"pin_set"`
	Role        Role   `gorm:"size:16;not null;default:user" json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Session is an opaque bearer credential. Only the SHA-256 of the token is stored.
type Session struct {
	BaseModel
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User      *User     `json:"user,omitempty"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}

// OTPCode is a pending phone verification code.
type OTPCode struct {
	BaseModel
	PhoneNumber string    `gorm:"size:8;index;not null" json:"phone_number"`
	CodeHash    string    `gorm:"size:64;not null" json:"-"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
}
