package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Role names. Every user carries exactly one role, assigned at registration
// and never changed afterwards (no role-update operation exists).
const (
	RoleAdmin   = "Admin"
	RoleDoctor  = "Doctor"
	RolePatient = "Patient"
)

type Role struct {
	gorm.Model
	ID   uint32 `gorm:"primary_key;auto_increment" json:"id"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`
}

// SeedRoles inserts the fixed role set if the rows are not present yet.
func SeedRoles(db *gorm.DB) error {
	roles := []Role{
		{Name: RoleAdmin},
		{Name: RoleDoctor},
		{Name: RolePatient},
	}

	for _, role := range roles {
		var existingRole Role
		// Check if the role already exists.
		err := db.Where("name = ?", role.Name).First(&existingRole).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
	}
	return nil
}
