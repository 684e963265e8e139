// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package access implements the visitor session gate: OTP-backed access
// requests, their verification and the expiry of verified sessions.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"codeberg.org/oliverandrich/portfolio-gate/internal/localtime"
	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"codeberg.org/oliverandrich/portfolio-gate/internal/sse"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrMissingEmail  = errors.New("missing email")
	ErrNoMatch       = errors.New("no matching request found")
)

// DefaultProjectType is stored when a request carries no project type.
const DefaultProjectType = "live"

// ListLimit caps the access request listing.
const ListLimit = 100

type Service struct {
	repo      *repository.Repository
	cfg       *config.AccessConfig
	publisher sse.Publisher
	now       func() time.Time
}

// NewService creates the access service. A nil publisher drops events.
func NewService(repo *repository.Repository, cfg *config.AccessConfig, publisher sse.Publisher) *Service {
	if publisher == nil {
		publisher = sse.Discard
	}
	return &Service{
		repo:      repo,
		cfg:       cfg,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// WithClock replaces the clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SessionDuration is how long a verified session stays active.
func (s *Service) SessionDuration() time.Duration {
	return s.cfg.SessionDuration()
}

// SessionCheck is the outcome of a session-gate lookup.
type SessionCheck struct {
	Active      bool
	RedirectURL string
	VisitorName string
}

// CheckSession looks for a live session of email on a project whose name
// contains project. Store errors are logged and reported as no session.
func (s *Service) CheckSession(ctx context.Context, email, project string) SessionCheck {
	email = strings.TrimSpace(email)
	if email == "" {
		return SessionCheck{}
	}

	now := s.now()
	req, err := s.repo.FindActiveSession(ctx, email, project, now)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("session_check_failed", "email", email, "error", err)
		}
		return SessionCheck{}
	}

	if err := s.repo.TouchLastAccess(ctx, req.ID, now); err != nil {
		slog.Warn("session_touch_failed", "request_id", req.ID, "error", err)
	}

	slog.Info("session_found", "email", email, "project", req.ProjectName)
	return SessionCheck{Active: true, RedirectURL: req.RedirectURL, VisitorName: req.VisitorName}
}

// CreateParams holds the fields of a new access request.
type CreateParams struct {
	VisitorName    string
	VisitorEmail   string
	ProjectName    string
	ProjectType    string
	RedirectURL    string
	OTPCode        string
	LocalTime      string
	ClientTimezone string
}

// CreateRequest stores a pending, unverified request. Earlier pending
// requests of the same visitor are left in place.
func (s *Service) CreateRequest(ctx context.Context, params CreateParams) (*models.AccessRequest, error) {
	params.VisitorEmail = strings.TrimSpace(params.VisitorEmail)
	if params.VisitorName == "" || params.VisitorEmail == "" || params.ProjectName == "" || params.OTPCode == "" {
		return nil, ErrMissingFields
	}

	now := s.now()
	req := &models.AccessRequest{
		VisitorName:    params.VisitorName,
		VisitorEmail:   params.VisitorEmail,
		ProjectName:    params.ProjectName,
		ProjectType:    params.ProjectType,
		RedirectURL:    params.RedirectURL,
		OTPCode:        params.OTPCode,
		CreatedAt:      now,
		LocalTime:      params.LocalTime,
		ClientTimezone: params.ClientTimezone,
	}
	if req.ProjectType == "" {
		req.ProjectType = DefaultProjectType
	}
	if req.ClientTimezone == "" {
		req.ClientTimezone = s.cfg.DefaultTimezone
	}
	if req.LocalTime == "" {
		req.LocalTime = localtime.Format(now, s.cfg.DefaultTimezone)
	}

	if err := s.repo.CreateAccessRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create access request: %w", err)
	}

	slog.Info("access_request_created", "request_id", req.ID, "email", req.VisitorEmail, "project", req.ProjectName)
	s.publisher.Publish(sse.EventAccessRequestCreated, map[string]any{
		"id":            req.ID,
		"visitor_name":  req.VisitorName,
		"visitor_email": req.VisitorEmail,
		"project_name":  req.ProjectName,
	})
	return req, nil
}

// Verify activates the most recent pending request matching email and
// code. The session expires SessionDuration after now.
func (s *Service) Verify(ctx context.Context, email, code string) (*models.AccessRequest, error) {
	email = strings.TrimSpace(email)
	if email == "" || code == "" {
		return nil, ErrMissingFields
	}

	now := s.now()
	req, err := s.repo.VerifyAccessRequest(ctx, email, code, now, now.Add(s.SessionDuration()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("access_verify_failed", "email", email, "reason", "no_match")
			return nil, ErrNoMatch
		}
		return nil, fmt.Errorf("failed to verify access: %w", err)
	}

	slog.Info("access_verified", "request_id", req.ID, "email", email, "expires_at", req.ExpiresAt)
	s.publisher.Publish(sse.EventAccessRequestVerified, map[string]any{
		"id":            req.ID,
		"visitor_email": req.VisitorEmail,
		"project_name":  req.ProjectName,
		"expires_at":    req.ExpiresAt,
	})
	return req, nil
}

// Revoke deactivates every active session of email.
func (s *Service) Revoke(ctx context.Context, email string) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, ErrMissingEmail
	}
	n, err := s.repo.RevokeAccess(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke access: %w", err)
	}
	slog.Info("access_revoked", "email", email, "count", n)
	return n, nil
}

// ResetAll deactivates every active session.
func (s *Service) ResetAll(ctx context.Context) (int64, error) {
	n, err := s.repo.ResetAllSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset sessions: %w", err)
	}
	slog.Info("sessions_reset", "count", n)
	return n, nil
}

// Sweep deactivates sessions whose expiry is at or before now.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.repo.SweepExpiredSessions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	if n > 0 {
		slog.Info("sessions_swept", "count", n)
		s.publisher.Publish(sse.EventSessionsSwept, map[string]any{"count": n, "at": now})
	}
	return n, nil
}

// Listing is one row of the admin access request listing.
type Listing struct { //nolint:govet // fieldalignment: readability over optimization
	ID           int64         `json:"id"`
	VisitorName  string        `json:"visitor_name"`
	VisitorEmail string        `json:"visitor_email"`
	ProjectName  string        `json:"project_name"`
	ProjectType  string        `json:"project_type"`
	StatusID     models.Status `json:"status_id"`
	Status       string        `json:"status"`
	IsVerified   bool          `json:"is_verified"`
	CreatedAt    time.Time     `json:"created_at"`
	VerifiedAt   *time.Time    `json:"verified_at"`
	LastAccessAt *time.Time    `json:"last_access_at"`
	ExpiresAt    *time.Time    `json:"expires_at"`
}

// List returns the newest requests with their derived status label.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	reqs, err := s.repo.ListAccessRequests(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list access requests: %w", err)
	}

	out := make([]Listing, 0, len(reqs))
	for i := range reqs {
		r := &reqs[i]
		out = append(out, Listing{
			ID:           r.ID,
			VisitorName:  r.VisitorName,
			VisitorEmail: r.VisitorEmail,
			ProjectName:  r.ProjectName,
			ProjectType:  r.ProjectType,
			StatusID:     r.StatusID,
			Status:       r.StatusID.String(),
			IsVerified:   r.IsVerified,
			CreatedAt:    r.CreatedAt,
			VerifiedAt:   r.VerifiedAt,
			LastAccessAt: r.LastAccessAt,
			ExpiresAt:    r.ExpiresAt,
		})
	}
	return out, nil
}

// Stats counts requests by verification and status.
func (s *Service) Stats(ctx context.Context) (*models.AccessStats, error) {
	stats, err := s.repo.AccessStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access stats: %w", err)
	}
	return stats, nil
}
