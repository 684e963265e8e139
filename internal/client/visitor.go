// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/localtime"
	"codeberg.org/oliverandrich/portfolio-gate/internal/otp"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/notify"
)

// PendingOTPLifetime is how long a requested code can be entered.
const PendingOTPLifetime = 5 * time.Minute

var (
	ErrNameRequired = errors.New("please enter your name")
	ErrNoCheck      = errors.New("check the session before requesting a code")
	ErrNoPendingOTP = errors.New("no code requested")
	ErrOTPExpired   = errors.New("code expired, request a new one")
	ErrOTPMismatch  = errors.New("invalid code")
)

// Project identifies the gated link a visitor wants to open.
type Project struct {
	Name        string
	Type        string
	RedirectURL string
}

// OTPRequest is the outcome of requesting a code. In demo mode the owner
// could not be notified and the code is handed to the visitor.
type OTPRequest struct {
	RequestID int64
	DemoMode  bool
	OTP       string
}

type pendingOTP struct {
	code     string
	issuedAt time.Time
}

// VisitorFlow drives the gate for one visitor: check, request a code,
// then verify it.
type VisitorFlow struct {
	api      *Client
	notifier notify.Notifier
	timezone string
	now      func() time.Time

	email   string
	project Project
	pending *pendingOTP
}

// NewVisitorFlow creates a visitor flow. A nil notifier always uses demo mode.
func NewVisitorFlow(api *Client, notifier notify.Notifier, timezone string) *VisitorFlow {
	return &VisitorFlow{
		api:      api,
		notifier: notifier,
		timezone: timezone,
		now:      time.Now,
	}
}

// WithClock replaces the clock.
func (f *VisitorFlow) WithClock(now func() time.Time) *VisitorFlow {
	f.now = now
	return f
}

// Check asks the gate whether email already holds a session for project.
// Any failure is treated as "code required".
func (f *VisitorFlow) Check(ctx context.Context, email string, project Project) *SessionStatus {
	f.email = strings.TrimSpace(email)
	f.project = project
	f.pending = nil

	status, err := f.api.CheckSession(ctx, f.email, project.Name)
	if err != nil {
		slog.Warn("session_check_failed", "error", err)
		return &SessionStatus{Result: Result{Success: false, Message: err.Error()}}
	}
	return status
}

// RequestOTP generates a code, stores the access request and notifies the
// owner. Storage failures are logged and do not stop the flow.
func (f *VisitorFlow) RequestOTP(ctx context.Context, name string) (*OTPRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if f.email == "" {
		return nil, ErrNoCheck
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, err
	}
	now := f.now()
	f.pending = &pendingOTP{code: code, issuedAt: now}

	res := &OTPRequest{}
	id, err := f.api.CreateAccessRequest(ctx, AccessRequest{
		VisitorName:    name,
		VisitorEmail:   f.email,
		ProjectName:    f.project.Name,
		ProjectType:    f.project.Type,
		RedirectURL:    f.project.RedirectURL,
		OTPCode:        code,
		LocalTime:      localtime.Format(now, f.timezone),
		ClientTimezone: f.timezone,
	})
	if err != nil {
		slog.Error("access_request_failed", "email", f.email, "error", err)
	} else {
		res.RequestID = id
	}

	if f.notifier == nil {
		res.DemoMode, res.OTP = true, code
		return res, nil
	}

	subject := fmt.Sprintf("OTP Request from %s for %s", name, f.project.Name)
	if err := f.notifier.NotifyOwner(ctx, subject, f.notice(name, code, now)); err != nil {
		slog.Warn("otp_notify_failed", "error", err)
		res.DemoMode, res.OTP = true, code
	}
	return res, nil
}

func (f *VisitorFlow) notice(name, code string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PORTFOLIO ACCESS REQUEST\n\n")
	fmt.Fprintf(&b, "OTP Code: %s\n\n", code)
	fmt.Fprintf(&b, "Visitor: %s <%s>\n", name, f.email)
	fmt.Fprintf(&b, "Project: %s\n", f.project.Name)
	fmt.Fprintf(&b, "Time: %s\n\n", localtime.Format(now, f.timezone))
	fmt.Fprintf(&b, "This OTP expires in %d minutes.\n", int(PendingOTPLifetime/time.Minute))
	fmt.Fprintf(&b, "Share it with the visitor to grant access. Set status_id to 2 to revoke it later.\n")
	return b.String()
}

// Verify checks code against the pending one and activates the session.
// The pending code is dropped on expiry and on success.
func (f *VisitorFlow) Verify(ctx context.Context, code string) (*Verification, error) {
	if f.pending == nil {
		return nil, ErrNoPendingOTP
	}
	if f.now().Sub(f.pending.issuedAt) > PendingOTPLifetime {
		f.pending = nil
		return nil, ErrOTPExpired
	}
	if !otp.Equal(strings.TrimSpace(code), f.pending.code) {
		return nil, ErrOTPMismatch
	}

	v, err := f.api.VerifyAccess(ctx, f.email, f.pending.code)
	if err != nil {
		return nil, err
	}
	f.pending = nil
	return v, nil
}

// RedirectURL returns the link of the checked project.
func (f *VisitorFlow) RedirectURL() string {
	return f.project.RedirectURL
}
