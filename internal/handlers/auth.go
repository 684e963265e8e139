// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/services/auth"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/session"
	"codeberg.org/oliverandrich/portfolio-gate/internal/sse"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for admin signup and login.
type AuthHandlers struct {
	auth     *auth.Service
	sessions *session.Manager
	notifier sse.AdminNotifier
}

// NewAuth creates a new AuthHandlers instance. A non-nil notifier tells the
// admin's open dashboards about every new login.
func NewAuth(authSvc *auth.Service, sess *session.Manager, notifier sse.AdminNotifier) *AuthHandlers {
	return &AuthHandlers{auth: authSvc, sessions: sess, notifier: notifier}
}

// SignupRequest is the request body for admin signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a pending admin and sends the approval OTP to the owner.
func (h *AuthHandlers) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "Invalid request body")
	}

	res, err := h.auth.Signup(c.Request().Context(), auth.SignupParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var pwErr *auth.PasswordValidationError
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			return BadRequest(c, "Username, email and password are required")
		case errors.Is(err, auth.ErrInvalidEmail):
			return BadRequest(c, "Invalid email format")
		case errors.As(err, &pwErr):
			return BadRequest(c, pwErr.Error())
		case errors.Is(err, auth.ErrUserExists):
			return fail(c, http.StatusConflict, "Username or email already exists")
		case errors.Is(err, auth.ErrOwnerUnreachable):
			return fail(c, http.StatusServiceUnavailable, "Could not reach the site owner. Please try again later.")
		}
		return internalError(c, "Failed to create admin account", err)
	}

	body := echo.Map{
		"success":   true,
		"message":   "Signup request submitted. The owner has been asked for approval.",
		"demo_mode": res.DemoMode,
	}
	if res.DemoMode {
		body["message"] = "Signup request submitted (demo mode - OTP returned)"
		body["otp"] = res.OTP
	}
	return c.JSON(http.StatusOK, body)
}

// VerifySignupRequest is the request body for approving a signup.
type VerifySignupRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifySignup approves a pending admin.
func (h *AuthHandlers) VerifySignup(c echo.Context) error {
	var req VerifySignupRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "Invalid request body")
	}

	if _, err := h.auth.VerifySignup(c.Request().Context(), req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			return BadRequest(c, "Email and OTP are required")
		case errors.Is(err, auth.ErrInvalidOTP):
			return BadRequest(c, "Invalid OTP or email")
		case errors.Is(err, auth.ErrOTPExpired):
			return BadRequest(c, "OTP has expired. Sign up again to get a new one.")
		}
		return internalError(c, "Failed to verify signup", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Account approved. You can now log in.",
	})
}

// LoginRequest is the request body for admin login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates an approved admin and issues a bearer token.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "Invalid request body")
	}

	user, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			return BadRequest(c, "Username and password are required")
		case errors.Is(err, auth.ErrInvalidCredentials):
			return Unauthorized(c, "Invalid username or password")
		case errors.Is(err, auth.ErrNotApproved):
			return fail(c, http.StatusForbidden, "Account pending approval")
		}
		return internalError(c, "Login failed", err)
	}

	token, data, err := h.sessions.Issue(user.ID, user.Username)
	if err != nil {
		return internalError(c, "Login failed", err)
	}

	if h.notifier != nil {
		h.notifier.NotifyAdmin(user.ID, sse.EventAdminLogin, map[string]any{
			"token_id": data.TokenID,
			"ip":       c.RealIP(),
			"at":       data.IssuedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    "Login successful",
		"user":       user.Profile(),
		"token":      token,
		"expires_at": data.ExpiresAt.Format(time.RFC3339),
	})
}
