package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/medisync/hms-backend/model"
)

// AppointmentView is the shape returned to callers for an appointment,
// combining entity fields with denormalized display names and the derived
// HasRecord flag.
type AppointmentView struct {
	ID              uint      `json:"id"`
	PatientID       uint      `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	DoctorID        uint      `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	AppointmentTime time.Time `json:"appointment_time"`
	DisplayTime     string    `json:"display_time"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason"`
	HasRecord       bool      `json:"has_record"`
}

// MedicalRecordView is the outward shape of a medical record.
type MedicalRecordView struct {
	ID                uint      `json:"id"`
	PatientID         uint      `json:"patient_id"`
	PatientName       string    `json:"patient_name"`
	DoctorID          uint      `json:"doctor_id"`
	DoctorName        string    `json:"doctor_name"`
	RecordedAt        time.Time `json:"recorded_at"`
	Diagnosis         string    `json:"diagnosis"`
	ConsultationNotes string    `json:"consultation_notes"`
}

// viewMapper builds view models, memoizing display-name lookups so mapping a
// result list does not refetch the same doctor or patient per row.
type viewMapper struct {
	db           *gorm.DB
	doctorNames  map[uint]string
	patientNames map[uint]string
}

func newViewMapper(db *gorm.DB) *viewMapper {
	return &viewMapper{
		db:           db,
		doctorNames:  make(map[uint]string),
		patientNames: make(map[uint]string),
	}
}

func (m *viewMapper) doctorName(id uint) string {
	if name, ok := m.doctorNames[id]; ok {
		return name
	}
	var doctor model.Doctor
	name := ""
	if err := m.db.First(&doctor, id).Error; err == nil {
		name = doctor.FullName
	}
	m.doctorNames[id] = name
	return name
}

func (m *viewMapper) patientName(id uint) string {
	if name, ok := m.patientNames[id]; ok {
		return name
	}
	var patient model.Patient
	name := ""
	if err := m.db.First(&patient, id).Error; err == nil {
		name = patient.FullName
	}
	m.patientNames[id] = name
	return name
}

func (m *viewMapper) appointmentView(appt model.Appointment) AppointmentView {
	return AppointmentView{
		ID:              appt.ID,
		PatientID:       appt.PatientID,
		PatientName:     m.patientName(appt.PatientID),
		DoctorID:        appt.DoctorID,
		DoctorName:      m.doctorName(appt.DoctorID),
		AppointmentTime: appt.AppointmentTime,
		DisplayTime:     appt.DisplayTime,
		Status:          appt.Status,
		Reason:          appt.Reason,
		HasRecord:       recordExistsForAppointment(m.db, appt.ID),
	}
}

func (m *viewMapper) appointmentViews(appointments []model.Appointment) []AppointmentView {
	views := make([]AppointmentView, 0, len(appointments))
	for _, appt := range appointments {
		views = append(views, m.appointmentView(appt))
	}
	return views
}

func (m *viewMapper) recordView(rec model.MedicalRecord) MedicalRecordView {
	return MedicalRecordView{
		ID:                rec.ID,
		PatientID:         rec.PatientID,
		PatientName:       m.patientName(rec.PatientID),
		DoctorID:          rec.DoctorID,
		DoctorName:        m.doctorName(rec.DoctorID),
		RecordedAt:        rec.RecordedAt,
		Diagnosis:         rec.Diagnosis,
		ConsultationNotes: rec.ConsultationNotes,
	}
}

func (m *viewMapper) recordViews(records []model.MedicalRecord) []MedicalRecordView {
	views := make([]MedicalRecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, m.recordView(rec))
	}
	return views
}

// recordExistsForAppointment is the existence check behind the HasRecord flag
// and the duplicate-record pre-check.
func recordExistsForAppointment(db *gorm.DB, appointmentID uint) bool {
	var count int64
	db.Model(&model.MedicalRecord{}).Where("appointment_id = ?", appointmentID).Count(&count)
	return count > 0
}
