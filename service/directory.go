package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/medisync/hms-backend/model"
)

// DoctorProfileFor resolves the doctor profile owned by a user account.
// Returns ErrProfileMissing when the user has no doctor row, which for a user
// whose role is Doctor means broken registration data rather than a bad id.
func DoctorProfileFor(db *gorm.DB, userID uint) (model.Doctor, error) {
	var doctor model.Doctor
	err := db.Where("user_id = ?", userID).First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Doctor{}, profileMissing(model.RoleDoctor, userID)
	}
	if err != nil {
		return model.Doctor{}, err
	}
	return doctor, nil
}

// PatientProfileFor resolves the patient profile owned by a user account.
func PatientProfileFor(db *gorm.DB, userID uint) (model.Patient, error) {
	var patient model.Patient
	err := db.Where("user_id = ?", userID).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Patient{}, profileMissing(model.RolePatient, userID)
	}
	if err != nil {
		return model.Patient{}, err
	}
	return patient, nil
}
