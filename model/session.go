package model

import (
	"time"

	"gorm.io/gorm"
)

// Session is a server-side login session. The token doubles as the JWT id so a
// session row (or its absence) can invalidate an otherwise well-formed token.
type Session struct {
	gorm.Model
	UserID       uint      `json:"user_id" gorm:"column:user_id;not null;index"`
	SessionToken string    `json:"session_token" gorm:"column:session_token;uniqueIndex;size:191"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"column:expires_at;not null"`
	ClientIP     string    `json:"client_ip" gorm:"column:client_ip;type:varchar(45)"`
	Browser      string    `json:"browser" gorm:"column:browser;type:varchar(512)"`
}
