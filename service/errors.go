package service

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for the scheduling core. All four are terminal for the
// triggering request and never retried; anything else bubbling out of the
// store is treated as a server fault by the endpoint layer.
var (
	// ErrEntityNotFound marks a referenced id (doctor, patient, appointment,
	// record) that does not exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrProfileMissing marks a user whose role demands a Doctor/Patient
	// profile row that is absent. Kept distinct from ErrEntityNotFound because
	// it indicates a data-integrity problem, not a bad id from the caller.
	ErrProfileMissing = errors.New("profile missing")

	// ErrAccessDenied marks an authenticated caller who is not entitled to the
	// operation, by role or by ownership.
	ErrAccessDenied = errors.New("access denied")

	// ErrDuplicateRecord marks an attempt to attach a second medical record to
	// an appointment.
	ErrDuplicateRecord = errors.New("medical record already exists for appointment")

	// ErrInvalidInput marks a request payload that fails validation before any
	// store access.
	ErrInvalidInput = errors.New("invalid input")
)

func entityNotFound(entity string, id uint) error {
	return fmt.Errorf("%w: %s not found with ID: %d", ErrEntityNotFound, entity, id)
}

func profileMissing(role string, userID uint) error {
	return fmt.Errorf("%w: %s profile not found for user %d", ErrProfileMissing, role, userID)
}

func accessDenied(reason string) error {
	return fmt.Errorf("%w: %s", ErrAccessDenied, reason)
}

func duplicateRecord(appointmentID uint) error {
	return fmt.Errorf("%w: appointment ID %d", ErrDuplicateRecord, appointmentID)
}

// isDuplicateKey reports whether err is a unique-constraint violation from the
// underlying store. The check-then-insert race in record creation is resolved
// by the unique index on appointment_id; a concurrent writer losing that race
// sees the violation here instead of a second committed record.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicated key")
}
