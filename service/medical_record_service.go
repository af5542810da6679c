package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/medisync/hms-backend/model"
)

// CreateMedicalRecordInput carries the record creation payload. The
// appointment id drives everything: the subject patient is taken from the
// resolved appointment, and PatientID/DoctorID are validated as present but
// otherwise informational.
type CreateMedicalRecordInput struct {
	PatientID         uint
	DoctorID          uint
	AppointmentID     uint
	Diagnosis         string
	ConsultationNotes string
}

// MedicalRecordService is the record linkage manager: record creation is
// one-to-one with completing an appointment, and every read is RBAC-scoped.
type MedicalRecordService interface {
	Create(p Principal, in CreateMedicalRecordInput) (MedicalRecordView, error)
	AccessibleBy(p Principal) ([]MedicalRecordView, error)
	ByID(p Principal, recordID uint) (MedicalRecordView, error)
}

type medicalRecordService struct {
	db     *gorm.DB
	logger *logrus.Logger
	now    func() time.Time
}

func NewMedicalRecordService(db *gorm.DB, logger *logrus.Logger) MedicalRecordService {
	return &medicalRecordService{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (s *medicalRecordService) validateCreateInput(in CreateMedicalRecordInput) error {
	if in.PatientID == 0 {
		return fmt.Errorf("%w: patient id is required", ErrInvalidInput)
	}
	if in.DoctorID == 0 {
		return fmt.Errorf("%w: doctor id is required", ErrInvalidInput)
	}
	if in.AppointmentID == 0 {
		return fmt.Errorf("%w: appointment id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		return fmt.Errorf("%w: diagnosis cannot be blank", ErrInvalidInput)
	}
	return nil
}

// Create attaches a medical record to an appointment and completes it.
//
// The record's author is always the caller's own doctor profile; the subject
// patient comes from the resolved appointment. The record insert and the
// COMPLETED status write share one transaction, and the unique index on
// appointment_id turns a lost check-then-insert race into ErrDuplicateRecord
// instead of a second record.
func (s *medicalRecordService) Create(p Principal, in CreateMedicalRecordInput) (MedicalRecordView, error) {
	if p.Role != model.RoleDoctor && p.Role != model.RoleAdmin {
		return MedicalRecordView{}, accessDenied("only doctors and admins can create medical records")
	}

	if err := s.validateCreateInput(in); err != nil {
		return MedicalRecordView{}, err
	}

	// The author field requires the caller's doctor profile even for admins;
	// an admin account without one cannot author records.
	author, err := DoctorProfileFor(s.db, p.UserID)
	if err != nil {
		return MedicalRecordView{}, err
	}

	var appointment model.Appointment
	if err := s.db.First(&appointment, in.AppointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return MedicalRecordView{}, entityNotFound("Appointment", in.AppointmentID)
		}
		return MedicalRecordView{}, err
	}

	if p.Role == model.RoleDoctor && appointment.DoctorID != author.ID {
		return MedicalRecordView{}, accessDenied("you can only record treatment for appointments assigned to you")
	}

	appointmentID := appointment.ID
	record := model.MedicalRecord{
		DoctorID:          author.ID,
		PatientID:         appointment.PatientID,
		AppointmentID:     &appointmentID,
		Diagnosis:         in.Diagnosis,
		ConsultationNotes: in.ConsultationNotes,
		RecordedAt:        s.now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if recordExistsForAppointment(tx, appointment.ID) {
			return duplicateRecord(appointment.ID)
		}
		if err := tx.Create(&record).Error; err != nil {
			if isDuplicateKey(err) {
				return duplicateRecord(appointment.ID)
			}
			return err
		}
		appointment.Status = model.StatusCompleted
		return tx.Save(&appointment).Error
	})
	if err != nil {
		return MedicalRecordView{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"record_id":      record.ID,
		"appointment_id": appointment.ID,
		"doctor_id":      author.ID,
		"patient_id":     appointment.PatientID,
	}).Info("Medical record created, appointment completed")

	return newViewMapper(s.db).recordView(record), nil
}

// AccessibleBy returns the records the caller may list: all for admins,
// authored for doctors, own for patients, none for anything else.
func (s *medicalRecordService) AccessibleBy(p Principal) ([]MedicalRecordView, error) {
	var records []model.MedicalRecord

	switch p.Role {
	case model.RoleAdmin:
		if err := s.db.Find(&records).Error; err != nil {
			return nil, err
		}
	case model.RoleDoctor:
		doctor, err := DoctorProfileFor(s.db, p.UserID)
		if err != nil {
			return nil, err
		}
		if err := s.db.Where("doctor_id = ?", doctor.ID).Find(&records).Error; err != nil {
			return nil, err
		}
	case model.RolePatient:
		patient, err := PatientProfileFor(s.db, p.UserID)
		if err != nil {
			return nil, err
		}
		if err := s.db.Where("patient_id = ?", patient.ID).Find(&records).Error; err != nil {
			return nil, err
		}
	default:
		return []MedicalRecordView{}, nil
	}

	return newViewMapper(s.db).recordViews(records), nil
}

// authorizeRecordRead is the single policy decision for ByID. An earlier
// revision let any doctor or patient read any record by id; that hole is
// closed: doctors may read only records they authored, patients only records
// about themselves.
func (s *medicalRecordService) authorizeRecordRead(p Principal, record *model.MedicalRecord) error {
	switch p.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleDoctor:
		doctor, err := DoctorProfileFor(s.db, p.UserID)
		if err != nil {
			return accessDenied("doctor profile missing")
		}
		if record.DoctorID != doctor.ID {
			return accessDenied("you are not authorized to view this record")
		}
		return nil
	case model.RolePatient:
		patient, err := PatientProfileFor(s.db, p.UserID)
		if err != nil {
			return accessDenied("patient profile missing")
		}
		if record.PatientID != patient.ID {
			return accessDenied("you are not authorized to view this record")
		}
		return nil
	default:
		return accessDenied("role cannot view medical records")
	}
}

// ByID returns a single record if the caller passes the read policy.
func (s *medicalRecordService) ByID(p Principal, recordID uint) (MedicalRecordView, error) {
	var record model.MedicalRecord
	if err := s.db.First(&record, recordID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return MedicalRecordView{}, entityNotFound("Medical Record", recordID)
		}
		return MedicalRecordView{}, err
	}

	if err := s.authorizeRecordRead(p, &record); err != nil {
		return MedicalRecordView{}, err
	}

	return newViewMapper(s.db).recordView(record), nil
}
