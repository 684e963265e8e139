// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Status is the session state of an access request.
type Status int

const (
	StatusActive   Status = 1
	StatusInactive Status = 2
)

// String returns ACTIVE or INACTIVE.
func (s Status) String() string {
	if s == StatusActive {
		return "ACTIVE"
	}
	return "INACTIVE"
}

// AccessRequest is one (visitor, project, OTP attempt) row.
type AccessRequest struct { //nolint:govet // fieldalignment: readability over optimization
	ID             int64      `db:"id" json:"id"`
	VisitorName    string     `db:"visitor_name" json:"visitor_name"`
	VisitorEmail   string     `db:"visitor_email" json:"visitor_email"`
	ProjectName    string     `db:"project_name" json:"project_name"`
	ProjectType    string     `db:"project_type" json:"project_type"`
	RedirectURL    string     `db:"redirect_url" json:"redirect_url"`
	OTPCode        string     `db:"otp_code" json:"-"`
	IsVerified     bool       `db:"is_verified" json:"is_verified"`
	StatusID       Status     `db:"status_id" json:"status_id"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	VerifiedAt     *time.Time `db:"verified_at" json:"verified_at"`
	LastAccessAt   *time.Time `db:"last_access_at" json:"last_access_at"`
	ExpiresAt      *time.Time `db:"expires_at" json:"expires_at"`
	LocalTime      string     `db:"local_time" json:"local_time"`
	ClientTimezone string     `db:"client_timezone" json:"client_timezone"`
}

// IsActive reports whether the row grants access at the given instant.
func (r *AccessRequest) IsActive(now time.Time) bool {
	if r.StatusID != StatusActive || !r.IsVerified {
		return false
	}
	return r.ExpiresAt == nil || r.ExpiresAt.After(now)
}

// AccessStats aggregates the access request table.
type AccessStats struct {
	TotalRequests    int64 `db:"total_requests" json:"total_requests"`
	VerifiedRequests int64 `db:"verified_requests" json:"verified_requests"`
	ActiveSessions   int64 `db:"active_sessions" json:"active_sessions"`
	InactiveSessions int64 `db:"inactive_sessions" json:"inactive_sessions"`
}
