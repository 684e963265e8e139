// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
)

// MinPasswordLength is checked before a signup is sent.
const MinPasswordLength = 6

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// Message is the subset of a contact message the dashboard works with.
type Message struct {
	ID          int64
	SenderName  string
	SenderEmail string
	Subject     string
	Message     string
	IsRead      bool
}

// Dashboard is the admin flow on top of Client.
type Dashboard struct {
	api *Client
}

// NewDashboard creates an admin dashboard flow.
func NewDashboard(api *Client) *Dashboard {
	return &Dashboard{api: api}
}

// Signup validates the password locally and registers a pending admin.
func (d *Dashboard) Signup(ctx context.Context, username, email, password, confirm string) (*Signup, error) {
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	return d.api.Signup(ctx, username, email, password)
}

// VerifySignup approves a pending admin with the owner's code.
func (d *Dashboard) VerifySignup(ctx context.Context, email, code string) (*Result, error) {
	return d.api.VerifySignup(ctx, email, code)
}

// Login authenticates and keeps the token for later calls.
func (d *Dashboard) Login(ctx context.Context, username, password string) (*Login, error) {
	return d.api.Login(ctx, username, password)
}

// Tables lists the browsable tables.
func (d *Dashboard) Tables(ctx context.Context) ([]Table, error) {
	return d.api.Tables(ctx)
}

// Rows returns the content of one table.
func (d *Dashboard) Rows(ctx context.Context, table string) (*Rows, error) {
	return d.api.Rows(ctx, table)
}

// OpenMessage marks an unread message as read.
func (d *Dashboard) OpenMessage(ctx context.Context, msg *Message) error {
	if msg.IsRead {
		return nil
	}
	if err := d.api.MarkRead(ctx, msg.ID); err != nil {
		return err
	}
	msg.IsRead = true
	return nil
}

// Reply answers a message and then flags it as replied. A failed flag
// update is logged since the reply already went out.
func (d *Dashboard) Reply(ctx context.Context, msg *Message, text string) (*ReplyOutcome, error) {
	out, err := d.api.SendReply(ctx, Reply{
		ToEmail:         msg.SenderEmail,
		ToName:          msg.SenderName,
		Subject:         msg.Subject,
		OriginalMessage: msg.Message,
		ReplyMessage:    text,
	})
	if err != nil {
		return nil, err
	}
	if err := d.api.MarkReplied(ctx, msg.ID); err != nil {
		slog.Warn("mark_replied_failed", "id", msg.ID, "error", err)
	}
	return out, nil
}

// SetAccess switches an access request between active and inactive.
func (d *Dashboard) SetAccess(ctx context.Context, id int64, active bool) error {
	status := models.StatusInactive
	if active {
		status = models.StatusActive
	}
	return d.api.UpdateRow(ctx, models.TableAccessRequests, id, map[string]any{"status_id": int(status)})
}

// Update applies arbitrary fields to a row.
func (d *Dashboard) Update(ctx context.Context, table string, id int64, fields map[string]any) error {
	return d.api.UpdateRow(ctx, table, id, fields)
}

// Delete removes a row.
func (d *Dashboard) Delete(ctx context.Context, table string, id int64) error {
	return d.api.DeleteRow(ctx, table, id)
}

// Stats returns the dashboard counters.
func (d *Dashboard) Stats(ctx context.Context) (*models.DashboardStats, error) {
	return d.api.DashboardStats(ctx)
}

// MessageFromRow converts a contact_messages row returned by Rows.
func MessageFromRow(row map[string]any) (*Message, error) {
	id, ok := row["id"].(float64)
	if !ok {
		return nil, fmt.Errorf("row has no numeric id")
	}
	str := func(k string) string {
		s, _ := row[k].(string)
		return s
	}
	read, _ := row["is_read"].(bool)
	return &Message{
		ID:          int64(id),
		SenderName:  str("sender_name"),
		SenderEmail: str("sender_email"),
		Subject:     str("subject"),
		Message:     str("message"),
		IsRead:      read,
	}, nil
}
