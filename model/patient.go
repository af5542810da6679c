package model

import "gorm.io/gorm"

// Patient represents a patient profile
// @Description Patient profile information, linked one-to-one with a user account
type Patient struct {
	gorm.Model
	UserID      uint   `json:"user_id" gorm:"column:user_id;uniqueIndex;not null" example:"2"`
	FullName    string `json:"full_name" gorm:"column:full_name;not null" example:"John Doe"`
	DateOfBirth string `json:"date_of_birth" gorm:"column:date_of_birth" example:"1990-05-20"`
	Address     string `json:"address" gorm:"column:address" example:"123 Main St"`
	Phone       string `json:"phone" gorm:"column:phone" example:"081234567890"`
}
