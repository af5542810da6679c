package model

import (
	"time"

	"gorm.io/gorm"
)

// Appointment statuses. SCHEDULED is the only initial state; COMPLETED and
// CANCELLED are terminal as far as the lifecycle is concerned, though the
// status-update operation itself is deliberately permissive (see service layer).
const (
	StatusScheduled = "SCHEDULED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// ValidAppointmentStatus reports whether s is one of the known statuses.
func ValidAppointmentStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment represents a booked consultation slot
// @Description Appointment between a doctor and a patient. Doctor and patient
// references are set at booking time and never reassigned.
type Appointment struct {
	gorm.Model
	DoctorID        uint      `json:"doctor_id" gorm:"column:doctor_id;not null;index" example:"1"`
	PatientID       uint      `json:"patient_id" gorm:"column:patient_id;not null;index" example:"2"`
	AppointmentTime time.Time `json:"appointment_time" gorm:"column:appointment_time;not null;index"`
	// DisplayTime is the caller-supplied presentation string; scheduling logic
	// only ever uses AppointmentTime.
	DisplayTime string `json:"display_time" gorm:"column:display_time" example:"Mon, Jan 15 at 10:30 AM"`
	Reason      string `json:"reason" gorm:"column:reason;type:text" example:"Routine check-up"`
	Status      string `json:"status" gorm:"column:status;type:varchar(32);not null" example:"SCHEDULED"`
}
