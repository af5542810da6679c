package model

import (
	"testing"
)

func TestSeedRolesCreatesRoles(t *testing.T) {
	db := setupTestDB(t, "role", &Role{})

	if err := SeedRoles(db); err != nil {
		t.Fatalf("SeedRoles returned error: %v", err)
	}

	var count int64
	if err := db.Model(&Role{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count roles: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 seeded roles, got %d", count)
	}
}

func TestSeedRolesIsIdempotent(t *testing.T) {
	db := setupTestDB(t, "role_idem", &Role{})

	if err := SeedRoles(db); err != nil {
		t.Fatalf("first SeedRoles returned error: %v", err)
	}
	if err := SeedRoles(db); err != nil {
		t.Fatalf("second SeedRoles returned error: %v", err)
	}

	var count int64
	if err := db.Model(&Role{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count roles: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 roles after reseeding, got %d", count)
	}
}
