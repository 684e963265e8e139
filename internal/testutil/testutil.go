// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/database"
	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// Now is the fixed instant used by time-dependent tests.
var Now = time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)

// Clock is a settable clock for services that take a func() time.Time.
// It is safe for use by background workers.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a clock starting at Now.
func NewClock() *Clock {
	return &Clock{t: Now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Event is one published dashboard event.
type Event struct {
	Name    string
	Payload any
	AdminID int64
}

// Recorder is an sse.Publisher that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records the event.
func (r *Recorder) Publish(eventName string, payload any) {
	r.mu.Lock()
	r.events = append(r.events, Event{Name: eventName, Payload: payload})
	r.mu.Unlock()
}

// NotifyAdmin records the event for adminID.
func (r *Recorder) NotifyAdmin(adminID int64, eventName string, payload any) {
	r.mu.Lock()
	r.events = append(r.events, Event{Name: eventName, Payload: payload, AdminID: adminID})
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	events := r.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestAccessRequest stores a pending access request.
func NewTestAccessRequest(t *testing.T, repo *repository.Repository, email, project, otp string) *models.AccessRequest {
	t.Helper()
	req := &models.AccessRequest{
		VisitorName:    "Visitor",
		VisitorEmail:   email,
		ProjectName:    project,
		ProjectType:    "live",
		RedirectURL:    "https://example.com/" + project,
		OTPCode:        otp,
		CreatedAt:      Now,
		LocalTime:      "2026-01-17 17:30:00 IST",
		ClientTimezone: "Asia/Kolkata",
	}
	require.NoError(t, repo.CreateAccessRequest(context.Background(), req))
	return req
}

// NewTestSession stores a verified request that expires at expiresAt.
func NewTestSession(t *testing.T, repo *repository.Repository, email, project string, expiresAt time.Time) *models.AccessRequest {
	t.Helper()
	ctx := context.Background()
	otp := "654321"
	NewTestAccessRequest(t, repo, email, project, otp)
	req, err := repo.VerifyAccessRequest(ctx, email, otp, Now, expiresAt)
	require.NoError(t, err)
	return req
}

// NewTestContactMessage stores an unread contact message.
func NewTestContactMessage(t *testing.T, repo *repository.Repository, email, subject string) *models.ContactMessage {
	t.Helper()
	msg := &models.ContactMessage{
		SenderName:     "Sender",
		SenderEmail:    email,
		Subject:        subject,
		Message:        "Hello there",
		CreatedAt:      Now,
		LocalTime:      "2026-01-17 17:30:00 IST",
		ClientTimezone: "Asia/Kolkata",
	}
	require.NoError(t, repo.CreateContactMessage(context.Background(), msg))
	return msg
}

// NewTestAdmin stores an admin with the given password hash.
func NewTestAdmin(t *testing.T, repo *repository.Repository, username, passwordHash string, approved bool) *models.AdminUser {
	t.Helper()
	user := &models.AdminUser{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
		IsApproved:   approved,
		CreatedAt:    Now,
	}
	require.NoError(t, repo.CreateAdminUser(context.Background(), user))
	return user
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewEchoContextWithHeaders creates an Echo context with custom headers.
func NewEchoContextWithHeaders(e *echo.Echo, method, path string, body io.Reader, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
