package service

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/medisync/hms-backend/model"
)

// setupServiceDB creates an in-memory SQLite database with every entity the
// services touch. The DSN is uniquified per call to prevent cross-test
// contamination within one process.
func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:servicedb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Role{}, &model.User{}, &model.Session{},
		&model.Doctor{}, &model.Patient{},
		&model.Appointment{}, &model.MedicalRecord{},
	); err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func createTestDoctor(t *testing.T, db *gorm.DB, userID uint, name string) model.Doctor {
	t.Helper()
	doctor := model.Doctor{UserID: userID, FullName: name, Specialization: "General"}
	if err := db.Create(&doctor).Error; err != nil {
		t.Fatalf("failed to create doctor: %v", err)
	}
	return doctor
}

func createTestPatient(t *testing.T, db *gorm.DB, userID uint, name string) model.Patient {
	t.Helper()
	patient := model.Patient{UserID: userID, FullName: name, DateOfBirth: "1990-01-01"}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("failed to create patient: %v", err)
	}
	return patient
}

func createTestAppointment(t *testing.T, db *gorm.DB, doctorID, patientID uint, at time.Time, status string) model.Appointment {
	t.Helper()
	appointment := model.Appointment{
		DoctorID:        doctorID,
		PatientID:       patientID,
		AppointmentTime: at,
		DisplayTime:     at.Format("Mon, Jan 2 at 3:04 PM"),
		Reason:          "test visit",
		Status:          status,
	}
	if err := db.Create(&appointment).Error; err != nil {
		t.Fatalf("failed to create appointment: %v", err)
	}
	return appointment
}

func adminPrincipal(userID uint) Principal   { return Principal{UserID: userID, Role: model.RoleAdmin} }
func doctorPrincipal(userID uint) Principal  { return Principal{UserID: userID, Role: model.RoleDoctor} }
func patientPrincipal(userID uint) Principal { return Principal{UserID: userID, Role: model.RolePatient} }
