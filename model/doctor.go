package model

import "gorm.io/gorm"

// Doctor represents a doctor profile
// @Description Doctor profile information, linked one-to-one with a user account
type Doctor struct {
	gorm.Model
	UserID         uint   `json:"user_id" gorm:"column:user_id;uniqueIndex;not null" example:"1"`
	FullName       string `json:"full_name" gorm:"column:full_name;not null" example:"Dr. Jane Smith"`
	Specialization string `json:"specialization" gorm:"column:specialization" example:"Cardiology"`
	Phone          string `json:"phone" gorm:"column:phone" example:"081234567890"`
}
