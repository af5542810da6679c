package model

import "gorm.io/gorm"

// User represents a login account. Doctor and Patient profile data lives in the
// dedicated profile tables, linked back here by UserID.
type User struct {
	gorm.Model
	Name         string `json:"name" gorm:"column:name" example:"John Doe"`
	Email        string `json:"email" gorm:"column:email;uniqueIndex;size:191" example:"john@example.com"`
	Password     string `json:"-" gorm:"column:password"`
	PasswordSalt string `json:"-" gorm:"column:password_salt"`
	RoleID       uint32 `json:"role_id" gorm:"column:role_id;not null" example:"1"`

	// Brute-force lockout bookkeeping, maintained by the login endpoint.
	FailedAttempts int    `json:"-" gorm:"column:failed_attempts;default:0"`
	LockedUntil    *int64 `json:"-" gorm:"column:locked_until"`
}
