// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
)

const accessRequestColumns = `id, visitor_name, visitor_email, project_name, project_type,
	redirect_url, otp_code, is_verified, status_id, created_at, verified_at,
	last_access_at, expires_at, local_time, client_timezone`

// CreateAccessRequest inserts an unverified, inactive request and sets req.ID.
func (r *Repository) CreateAccessRequest(ctx context.Context, req *models.AccessRequest) error {
	id, err := r.insert(ctx, `INSERT INTO visitor_access_requests
		(visitor_name, visitor_email, project_name, project_type, redirect_url, otp_code,
		 is_verified, status_id, created_at, local_time, client_timezone)
		VALUES (?, ?, ?, ?, ?, ?, FALSE, ?, ?, ?, ?)`,
		req.VisitorName, req.VisitorEmail, req.ProjectName, req.ProjectType, req.RedirectURL,
		req.OTPCode, models.StatusInactive, req.CreatedAt, req.LocalTime, req.ClientTimezone)
	if err != nil {
		return err
	}
	req.ID = id
	req.IsVerified = false
	req.StatusID = models.StatusInactive
	return nil
}

// GetAccessRequest retrieves a request by ID.
func (r *Repository) GetAccessRequest(ctx context.Context, id int64) (*models.AccessRequest, error) {
	var req models.AccessRequest
	if err := r.get(ctx, &req, `SELECT `+accessRequestColumns+` FROM visitor_access_requests WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// FindActiveSession returns the most recently verified live session for
// email whose project name contains project.
func (r *Repository) FindActiveSession(ctx context.Context, email, project string, now time.Time) (*models.AccessRequest, error) {
	var req models.AccessRequest
	err := r.get(ctx, &req, `SELECT `+accessRequestColumns+`
		FROM visitor_access_requests
		WHERE visitor_email = ?
		  AND `+r.containsClause("project_name")+`
		  AND status_id = ?
		  AND is_verified = TRUE
		  AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY verified_at DESC, id DESC
		LIMIT 1`,
		email, project, models.StatusActive, now)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// TouchLastAccess records a session hit.
func (r *Repository) TouchLastAccess(ctx context.Context, id int64, now time.Time) error {
	return r.execOne(ctx, `UPDATE visitor_access_requests SET last_access_at = ? WHERE id = ?`, now, id)
}

// VerifyAccessRequest activates the most recent unverified request matching
// email and otp. The expiry is fixed to expiresAt.
func (r *Repository) VerifyAccessRequest(ctx context.Context, email, otp string, now, expiresAt time.Time) (*models.AccessRequest, error) {
	var id int64
	err := r.get(ctx, &id, `UPDATE visitor_access_requests
		SET is_verified = TRUE, status_id = ?, verified_at = ?, last_access_at = ?, expires_at = ?
		WHERE id = (
			SELECT id FROM visitor_access_requests
			WHERE visitor_email = ? AND otp_code = ? AND is_verified = FALSE
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		RETURNING id`,
		models.StatusActive, now, now, expiresAt, email, otp)
	if err != nil {
		return nil, err
	}
	return r.GetAccessRequest(ctx, id)
}

// RevokeAccess deactivates every active session of one email.
func (r *Repository) RevokeAccess(ctx context.Context, email string) (int64, error) {
	return r.exec(ctx, `UPDATE visitor_access_requests SET status_id = ? WHERE visitor_email = ? AND status_id = ?`,
		models.StatusInactive, email, models.StatusActive)
}

// ResetAllSessions deactivates every active session.
func (r *Repository) ResetAllSessions(ctx context.Context) (int64, error) {
	return r.exec(ctx, `UPDATE visitor_access_requests SET status_id = ? WHERE status_id = ?`,
		models.StatusInactive, models.StatusActive)
}

// SweepExpiredSessions deactivates active sessions whose expiry is at or before now.
func (r *Repository) SweepExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, `UPDATE visitor_access_requests SET status_id = ?
		WHERE status_id = ? AND expires_at IS NOT NULL AND expires_at <= ?`,
		models.StatusInactive, models.StatusActive, now)
}

// ListAccessRequests returns the newest requests first.
func (r *Repository) ListAccessRequests(ctx context.Context, limit int) ([]models.AccessRequest, error) {
	var reqs []models.AccessRequest
	err := r.selectAll(ctx, &reqs, `SELECT `+accessRequestColumns+`
		FROM visitor_access_requests ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// AccessStats counts requests by verification and status.
func (r *Repository) AccessStats(ctx context.Context) (*models.AccessStats, error) {
	var stats models.AccessStats
	err := r.get(ctx, &stats, `SELECT
		COUNT(*) AS total_requests,
		COUNT(CASE WHEN is_verified = TRUE THEN 1 END) AS verified_requests,
		COUNT(CASE WHEN status_id = 1 THEN 1 END) AS active_sessions,
		COUNT(CASE WHEN status_id = 2 THEN 1 END) AS inactive_sessions
		FROM visitor_access_requests`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
