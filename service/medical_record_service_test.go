package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/medisync/hms-backend/model"
)

func newTestMedicalRecordService(t *testing.T) (*medicalRecordService, *recordServiceFixtures) {
	t.Helper()
	db := setupServiceDB(t)
	svc := &medicalRecordService{db: db, logger: testLogger(), now: time.Now}

	f := &recordServiceFixtures{
		db:      db,
		doctor:  createTestDoctor(t, db, 10, "Dr. Alice Wong"),
		doctor2: createTestDoctor(t, db, 11, "Dr. Bob Reid"),
		patient: createTestPatient(t, db, 20, "Carol Danvers"),
	}
	f.appointment = createTestAppointment(t, db, f.doctor.ID, f.patient.ID, time.Now(), model.StatusScheduled)
	return svc, f
}

type recordServiceFixtures struct {
	db          *gorm.DB
	doctor      model.Doctor
	doctor2     model.Doctor
	patient     model.Patient
	appointment model.Appointment
}

func createInput(f *recordServiceFixtures) CreateMedicalRecordInput {
	return CreateMedicalRecordInput{
		PatientID:     f.patient.ID,
		DoctorID:      f.doctor.ID,
		AppointmentID: f.appointment.ID,
		Diagnosis:     "Acute bronchitis",
	}
}

func TestCreateRecord_CompletesAppointment(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)

	in := createInput(f)
	in.ConsultationNotes = "Prescribed rest and fluids"
	view, err := svc.Create(doctorPrincipal(f.doctor.UserID), in)
	assert.NoError(t, err)
	assert.Equal(t, "Acute bronchitis", view.Diagnosis)
	assert.Equal(t, "Dr. Alice Wong", view.DoctorName)
	assert.Equal(t, "Carol Danvers", view.PatientName)

	var appointment model.Appointment
	assert.NoError(t, f.db.First(&appointment, f.appointment.ID).Error)
	assert.Equal(t, model.StatusCompleted, appointment.Status)
}

func TestCreateRecord_DuplicateLeavesFirstIntact(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)

	first, err := svc.Create(doctorPrincipal(f.doctor.UserID), createInput(f))
	assert.NoError(t, err)

	in := createInput(f)
	in.Diagnosis = "Revised diagnosis"
	_, err = svc.Create(doctorPrincipal(f.doctor.UserID), in)
	assert.True(t, errors.Is(err, ErrDuplicateRecord), "expected ErrDuplicateRecord, got %v", err)

	var records []model.MedicalRecord
	assert.NoError(t, f.db.Where("appointment_id = ?", f.appointment.ID).Find(&records).Error)
	assert.Len(t, records, 1)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, "Acute bronchitis", records[0].Diagnosis)
}

func TestCreateRecord_PatientDenied(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)

	_, err := svc.Create(patientPrincipal(f.patient.UserID), createInput(f))
	assert.True(t, errors.Is(err, ErrAccessDenied), "expected ErrAccessDenied, got %v", err)
}

func TestCreateRecord_OtherDoctorDenied(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)

	_, err := svc.Create(doctorPrincipal(f.doctor2.UserID), createInput(f))
	assert.True(t, errors.Is(err, ErrAccessDenied), "expected ErrAccessDenied, got %v", err)
}

func TestCreateRecord_AdminWithProfileBypassesAssignment(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)

	// An admin who also has a doctor profile may record against any
	// appointment; the record is authored under their own profile.
	adminDoctor := createTestDoctor(t, f.db, 30, "Dr. Head Admin")
	view, err := svc.Create(adminPrincipal(adminDoctor.UserID), createInput(f))
	assert.NoError(t, err)
	assert.Equal(t, adminDoctor.ID, view.DoctorID)
}

func TestCreateRecord_AdminWithoutProfileFails(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)

	_, err := svc.Create(adminPrincipal(99), createInput(f))
	assert.True(t, errors.Is(err, ErrProfileMissing), "expected ErrProfileMissing, got %v", err)
}

func TestCreateRecord_AppointmentNotFound(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)

	in := createInput(f)
	in.AppointmentID = 9999
	_, err := svc.Create(doctorPrincipal(f.doctor.UserID), in)
	assert.True(t, errors.Is(err, ErrEntityNotFound), "expected ErrEntityNotFound, got %v", err)
}

func TestCreateRecord_InputValidation(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)

	cases := []struct {
		name   string
		mutate func(*CreateMedicalRecordInput)
	}{
		{"blank diagnosis", func(in *CreateMedicalRecordInput) { in.Diagnosis = "   " }},
		{"zero patient id", func(in *CreateMedicalRecordInput) { in.PatientID = 0 }},
		{"zero doctor id", func(in *CreateMedicalRecordInput) { in.DoctorID = 0 }},
		{"zero appointment id", func(in *CreateMedicalRecordInput) { in.AppointmentID = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := createInput(f)
			tc.mutate(&in)
			_, err := svc.Create(doctorPrincipal(f.doctor.UserID), in)
			assert.True(t, errors.Is(err, ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
		})
	}
}

func TestCreateRecord_SubjectComesFromAppointment(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)
	other := createTestPatient(t, f.db, 21, "Dan Other")

	// A mismatched patient id in the payload does not redirect the record;
	// the subject is always the appointment's patient.
	in := createInput(f)
	in.PatientID = other.ID
	view, err := svc.Create(doctorPrincipal(f.doctor.UserID), in)
	assert.NoError(t, err)
	assert.Equal(t, f.patient.ID, view.PatientID)
}

func TestAccessibleBy_ScopesPerRole(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)
	patient2 := createTestPatient(t, f.db, 21, "Dan Other")
	appt2 := createTestAppointment(t, f.db, f.doctor2.ID, patient2.ID, time.Now(), model.StatusScheduled)

	_, err := svc.Create(doctorPrincipal(f.doctor.UserID), createInput(f))
	assert.NoError(t, err)
	_, err = svc.Create(doctorPrincipal(f.doctor2.UserID), CreateMedicalRecordInput{
		PatientID:     patient2.ID,
		DoctorID:      f.doctor2.ID,
		AppointmentID: appt2.ID,
		Diagnosis:     "Sprained ankle",
	})
	assert.NoError(t, err)

	adminViews, err := svc.AccessibleBy(adminPrincipal(1))
	assert.NoError(t, err)
	assert.Len(t, adminViews, 2)

	doctorViews, err := svc.AccessibleBy(doctorPrincipal(f.doctor.UserID))
	assert.NoError(t, err)
	assert.Len(t, doctorViews, 1)
	assert.Equal(t, f.doctor.ID, doctorViews[0].DoctorID)

	patientViews, err := svc.AccessibleBy(patientPrincipal(f.patient.UserID))
	assert.NoError(t, err)
	assert.Len(t, patientViews, 1)
	assert.Equal(t, f.patient.ID, patientViews[0].PatientID)

	noneViews, err := svc.AccessibleBy(Principal{UserID: 1, Role: "Auditor"})
	assert.NoError(t, err)
	assert.Empty(t, noneViews)
}

func TestByID_ReadPolicy(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)
	otherPatient := createTestPatient(t, f.db, 21, "Dan Other")

	created, err := svc.Create(doctorPrincipal(f.doctor.UserID), createInput(f))
	assert.NoError(t, err)

	// Admin: any record.
	_, err = svc.ByID(adminPrincipal(1), created.ID)
	assert.NoError(t, err)

	// Authoring doctor: allowed. Any other doctor: denied.
	_, err = svc.ByID(doctorPrincipal(f.doctor.UserID), created.ID)
	assert.NoError(t, err)
	_, err = svc.ByID(doctorPrincipal(f.doctor2.UserID), created.ID)
	assert.True(t, errors.Is(err, ErrAccessDenied), "expected ErrAccessDenied, got %v", err)

	// Subject patient: allowed. Any other patient: denied.
	_, err = svc.ByID(patientPrincipal(f.patient.UserID), created.ID)
	assert.NoError(t, err)
	_, err = svc.ByID(patientPrincipal(otherPatient.UserID), created.ID)
	assert.True(t, errors.Is(err, ErrAccessDenied), "expected ErrAccessDenied, got %v", err)
}

func TestByID_NotFound(t *testing.T) {
	svc, f := newTestMedicalRecordService(t)

	_, err := svc.ByID(doctorPrincipal(f.doctor.UserID), 4242)
	assert.True(t, errors.Is(err, ErrEntityNotFound), "expected ErrEntityNotFound, got %v", err)
}
