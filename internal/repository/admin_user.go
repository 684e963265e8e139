// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
)

const adminUserColumns = `id, username, email, password_hash, is_approved, signup_otp,
	signup_otp_expires_at, last_login_at, login_count, created_at`

// AdminExists reports whether the username or the email is already taken.
func (r *Repository) AdminExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	if err := r.get(ctx, &count, `SELECT COUNT(*) FROM admin_users WHERE username = ? OR email = ?`, username, email); err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteExpiredPendingAdmins frees the username and email held by unapproved
// signups whose OTP expired at or before now.
func (r *Repository) DeleteExpiredPendingAdmins(ctx context.Context, username, email string, now time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM admin_users
		WHERE (username = ? OR email = ?)
		  AND is_approved = FALSE
		  AND signup_otp_expires_at <= ?`,
		username, email, now)
}

// DeletePendingAdmin removes an unapproved admin.
func (r *Repository) DeletePendingAdmin(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM admin_users WHERE id = ? AND is_approved = FALSE`, id)
}

// CreateAdminUser stores a pending admin and sets user.ID.
func (r *Repository) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	id, err := r.insert(ctx, `INSERT INTO admin_users
		(username, email, password_hash, is_approved, signup_otp, signup_otp_expires_at, login_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		user.Username, user.Email, user.PasswordHash, user.IsApproved, user.SignupOTP, user.SignupOTPExpiresAt, user.CreatedAt)
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetAdminByID retrieves an admin by ID.
func (r *Repository) GetAdminByID(ctx context.Context, id int64) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := r.get(ctx, &user, `SELECT `+adminUserColumns+` FROM admin_users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAdminByUsername retrieves an admin by username.
func (r *Repository) GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := r.get(ctx, &user, `SELECT `+adminUserColumns+` FROM admin_users WHERE username = ?`, username); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPendingAdmin retrieves the unapproved admin whose signup OTP matches.
func (r *Repository) GetPendingAdmin(ctx context.Context, email, otp string) (*models.AdminUser, error) {
	var user models.AdminUser
	err := r.get(ctx, &user, `SELECT `+adminUserColumns+`
		FROM admin_users WHERE email = ? AND signup_otp = ? AND is_approved = FALSE`, email, otp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ApproveAdmin flips approval and clears the signup OTP.
func (r *Repository) ApproveAdmin(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE admin_users
		SET is_approved = TRUE, signup_otp = NULL, signup_otp_expires_at = NULL
		WHERE id = ?`, id)
}

// RecordAdminLogin bumps the login counter and timestamp.
func (r *Repository) RecordAdminLogin(ctx context.Context, id int64, now time.Time) error {
	return r.execOne(ctx, `UPDATE admin_users
		SET last_login_at = ?, login_count = login_count + 1
		WHERE id = ?`, now, id)
}

// CountAdminUsers returns the number of admins and how many await approval.
func (r *Repository) CountAdminUsers(ctx context.Context) (total, pending int64, err error) {
	var counts struct {
		Total   int64 `db:"total"`
		Pending int64 `db:"pending"`
	}
	err = r.get(ctx, &counts, `SELECT
		COUNT(*) AS total,
		COUNT(CASE WHEN is_approved = FALSE THEN 1 END) AS pending
		FROM admin_users`)
	if err != nil {
		return 0, 0, err
	}
	return counts.Total, counts.Pending, nil
}
