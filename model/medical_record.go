package model

import (
	"time"

	"gorm.io/gorm"
)

// MedicalRecord represents the clinical outcome of a completed appointment
// @Description Medical record authored by a doctor for a patient. The unique
// index on appointment_id enforces at most one record per appointment at the
// database level, backstopping the application-side existence check.
type MedicalRecord struct {
	gorm.Model
	DoctorID          uint      `json:"doctor_id" gorm:"column:doctor_id;not null;index" example:"1"`
	PatientID         uint      `json:"patient_id" gorm:"column:patient_id;not null;index" example:"2"`
	AppointmentID     *uint     `json:"appointment_id" gorm:"column:appointment_id;uniqueIndex" example:"3"`
	Diagnosis         string    `json:"diagnosis" gorm:"column:diagnosis;not null" example:"Seasonal allergy"`
	ConsultationNotes string    `json:"consultation_notes" gorm:"column:consultation_notes;type:text" example:"Prescribed antihistamines"`
	RecordedAt        time.Time `json:"recorded_at" gorm:"column:recorded_at;not null"`
}
