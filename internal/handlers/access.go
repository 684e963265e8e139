// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/services/access"
	"github.com/labstack/echo/v4"
)

// CheckSessionRequest is the body of POST /api/check-session.
type CheckSessionRequest struct {
	VisitorEmail string `json:"visitor_email"`
	ProjectName  string `json:"project_name"`
}

// CheckSession reports whether a visitor can skip the OTP step. It never
// fails: any problem is answered with hasActiveSession false.
func (h *Handlers) CheckSession(c echo.Context) error {
	var req CheckSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, echo.Map{
			"success":          true,
			"hasActiveSession": false,
			"message":          "Session check failed",
		})
	}

	if req.VisitorEmail == "" {
		return c.JSON(http.StatusOK, echo.Map{
			"success":          true,
			"hasActiveSession": false,
			"message":          "No email provided",
		})
	}

	check := h.access.CheckSession(c.Request().Context(), req.VisitorEmail, req.ProjectName)
	if !check.Active {
		return c.JSON(http.StatusOK, echo.Map{
			"success":          true,
			"hasActiveSession": false,
			"message":          "No active session - OTP required",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":          true,
		"hasActiveSession": true,
		"message":          "Active session found",
		"redirect_url":     check.RedirectURL,
		"visitor_name":     check.VisitorName,
	})
}

// CreateAccessRequest is the body of POST /api/access-requests.
type CreateAccessRequest struct {
	VisitorName    string `json:"visitor_name"`
	VisitorEmail   string `json:"visitor_email"`
	ProjectName    string `json:"project_name"`
	ProjectType    string `json:"project_type"`
	RedirectURL    string `json:"redirect_url"`
	OTPCode        string `json:"otp_code"`
	LocalTime      string `json:"local_time"`
	ClientTimezone string `json:"client_timezone"`
}

// CreateAccessRequest stores a pending access request.
func (h *Handlers) CreateAccessRequest(c echo.Context) error {
	var req CreateAccessRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "Invalid request body")
	}

	created, err := h.access.CreateRequest(c.Request().Context(), access.CreateParams{
		VisitorName:    req.VisitorName,
		VisitorEmail:   req.VisitorEmail,
		ProjectName:    req.ProjectName,
		ProjectType:    req.ProjectType,
		RedirectURL:    req.RedirectURL,
		OTPCode:        req.OTPCode,
		LocalTime:      req.LocalTime,
		ClientTimezone: req.ClientTimezone,
	})
	if err != nil {
		if errors.Is(err, access.ErrMissingFields) {
			return BadRequest(c, "Missing required fields")
		}
		return internalError(c, "Failed to save access request", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Access request saved",
		"id":      created.ID,
	})
}

// VerifyAccessRequest is the body of PATCH /api/access-requests/verify.
type VerifyAccessRequest struct {
	VisitorEmail string `json:"visitor_email"`
	OTPCode      string `json:"otp_code"`
}

// VerifyAccess activates the session matching an email and OTP.
func (h *Handlers) VerifyAccess(c echo.Context) error {
	var req VerifyAccessRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "Invalid request body")
	}

	verified, err := h.access.Verify(c.Request().Context(), req.VisitorEmail, req.OTPCode)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrMissingFields):
			return BadRequest(c, "Missing email or OTP")
		case errors.Is(err, access.ErrNoMatch):
			return NotFound(c, "No matching request found")
		}
		return internalError(c, "Failed to verify access", err)
	}

	days := int(h.access.SessionDuration() / (24 * time.Hour))
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    fmt.Sprintf("Access verified - Session active for %d days", days),
		"expires_at": verified.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// RevokeAccessRequest is the body of PATCH /api/access-requests/revoke.
type RevokeAccessRequest struct {
	VisitorEmail string `json:"visitor_email"`
}

// RevokeAccess deactivates every session of one visitor.
func (h *Handlers) RevokeAccess(c echo.Context) error {
	var req RevokeAccessRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "Invalid request body")
	}

	n, err := h.access.Revoke(c.Request().Context(), req.VisitorEmail)
	if err != nil {
		if errors.Is(err, access.ErrMissingEmail) {
			return BadRequest(c, "Missing email")
		}
		return internalError(c, "Failed to revoke access", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": fmt.Sprintf("Revoked %d active sessions", n),
		"count":   n,
	})
}

// ResetAllSessions deactivates every session.
func (h *Handlers) ResetAllSessions(c echo.Context) error {
	n, err := h.access.ResetAll(c.Request().Context())
	if err != nil {
		return internalError(c, "Failed to reset sessions", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": fmt.Sprintf("Reset %d active sessions", n),
		"count":   n,
	})
}

// ListAccessRequests returns the latest requests.
func (h *Handlers) ListAccessRequests(c echo.Context) error {
	rows, err := h.access.List(c.Request().Context())
	if err != nil {
		return internalError(c, "Failed to fetch access requests", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": rows})
}

// AccessStats returns the access request counters.
func (h *Handlers) AccessStats(c echo.Context) error {
	stats, err := h.access.Stats(c.Request().Context())
	if err != nil {
		return internalError(c, "Failed to fetch statistics", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": stats})
}
