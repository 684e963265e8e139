// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"testing"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "ACTIVE", models.StatusActive.String())
	assert.Equal(t, "INACTIVE", models.StatusInactive.String())
	assert.Equal(t, "INACTIVE", models.Status(0).String())
}

func TestAccessRequest_IsActive(t *testing.T) {
	now := time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name     string
		req      models.AccessRequest
		expected bool
	}{
		{"active verified unexpired", models.AccessRequest{StatusID: models.StatusActive, IsVerified: true, ExpiresAt: &future}, true},
		{"active verified no expiry", models.AccessRequest{StatusID: models.StatusActive, IsVerified: true}, true},
		{"active verified expired", models.AccessRequest{StatusID: models.StatusActive, IsVerified: true, ExpiresAt: &past}, false},
		{"active verified expiring now", models.AccessRequest{StatusID: models.StatusActive, IsVerified: true, ExpiresAt: &now}, false},
		{"active unverified", models.AccessRequest{StatusID: models.StatusActive, ExpiresAt: &future}, false},
		{"inactive verified", models.AccessRequest{StatusID: models.StatusInactive, IsVerified: true, ExpiresAt: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.req.IsActive(now))
		})
	}
}

func TestAdminUser_Profile(t *testing.T) {
	user := &models.AdminUser{ID: 4, Username: "ann", Email: "a@x.com", PasswordHash: "secret"}

	assert.Equal(t, models.AdminProfile{ID: 4, Username: "ann", Email: "a@x.com"}, user.Profile())
}

func TestAllTables(t *testing.T) {
	assert.Equal(t, []string{"visitor_access_requests", "contact_messages", "admin_users"}, models.AllTables())
}
