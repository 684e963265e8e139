// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// AdminUser is a dashboard operator.
type AdminUser struct { //nolint:govet // fieldalignment: readability over optimization
	ID                 int64      `db:"id" json:"id"`
	Username           string     `db:"username" json:"username"`
	Email              string     `db:"email" json:"email"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	IsApproved         bool       `db:"is_approved" json:"is_approved"`
	SignupOTP          *string    `db:"signup_otp" json:"-"`
	SignupOTPExpiresAt *time.Time `db:"signup_otp_expires_at" json:"-"`
	LastLoginAt        *time.Time `db:"last_login_at" json:"last_login_at"`
	LoginCount         int64      `db:"login_count" json:"login_count"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

// AdminProfile is the public view of an admin returned after login.
type AdminProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Profile returns the public view of the admin.
func (u *AdminUser) Profile() AdminProfile {
	return AdminProfile{ID: u.ID, Username: u.Username, Email: u.Email}
}

// DashboardStats combines the counters shown on the admin dashboard.
type DashboardStats struct {
	Access        AccessStats  `json:"access_requests"`
	Contact       ContactStats `json:"contact_messages"`
	AdminUsers    int64        `json:"admin_users"`
	PendingAdmins int64        `json:"pending_admins"`
}
