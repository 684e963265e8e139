// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package contact handles contact-form messages and replies to them.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/localtime"
	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/email"
	"codeberg.org/oliverandrich/portfolio-gate/internal/sse"
)

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidRecipient = errors.New("invalid recipient email")
)

// ListLimit caps the message listing.
const ListLimit = 100

// Mailer delivers replies.
type Mailer interface {
	SendReply(ctx context.Context, r email.Reply) (email.Message, error)
}

type Service struct {
	repo      *repository.Repository
	mailer    Mailer
	publisher sse.Publisher
	timezone  string
	now       func() time.Time
}

// NewService creates the contact service. Without a mailer, replies are
// composed but not sent.
func NewService(repo *repository.Repository, mailer Mailer, publisher sse.Publisher, timezone string) *Service {
	if publisher == nil {
		publisher = sse.Discard
	}
	return &Service{
		repo:      repo,
		mailer:    mailer,
		publisher: publisher,
		timezone:  timezone,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// WithClock replaces the clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateParams holds a contact-form submission.
type CreateParams struct {
	SenderName     string
	SenderEmail    string
	Subject        string
	Message        string
	LocalTime      string
	ClientTimezone string
}

// Create stores a new unread message.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.ContactMessage, error) {
	if params.SenderName == "" || params.SenderEmail == "" || params.Message == "" {
		return nil, ErrMissingFields
	}

	now := s.now()
	msg := &models.ContactMessage{
		SenderName:     params.SenderName,
		SenderEmail:    params.SenderEmail,
		Subject:        strings.TrimSpace(params.Subject),
		Message:        params.Message,
		CreatedAt:      now,
		LocalTime:      params.LocalTime,
		ClientTimezone: params.ClientTimezone,
	}
	if msg.ClientTimezone == "" {
		msg.ClientTimezone = s.timezone
	}
	if msg.LocalTime == "" {
		msg.LocalTime = localtime.Format(now, s.timezone)
	}

	if err := s.repo.CreateContactMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save contact message: %w", err)
	}

	slog.Info("contact_message_created", "message_id", msg.ID, "email", msg.SenderEmail)
	s.publisher.Publish(sse.EventContactMessageCreated, map[string]any{
		"id":           msg.ID,
		"sender_name":  msg.SenderName,
		"sender_email": msg.SenderEmail,
		"subject":      msg.Subject,
	})
	return msg, nil
}

// List returns the newest messages first.
func (s *Service) List(ctx context.Context) ([]models.ContactMessage, error) {
	msgs, err := s.repo.ListContactMessages(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	return msgs, nil
}

func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	n, err := s.repo.UnreadContactCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

func (s *Service) Stats(ctx context.Context) (*models.ContactStats, error) {
	stats, err := s.repo.ContactStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact stats: %w", err)
	}
	return stats, nil
}

// MarkRead flags a message as read. Returns repository.ErrNotFound for an
// unknown id.
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	if err := s.repo.MarkContactRead(ctx, id, s.now()); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// MarkReplied flags a message as replied.
func (s *Service) MarkReplied(ctx context.Context, id int64) error {
	if err := s.repo.MarkContactReplied(ctx, id, s.now()); err != nil {
		return fmt.Errorf("failed to mark message replied: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteContactMessage(ctx, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	slog.Info("contact_message_deleted", "message_id", id)
	return nil
}

// ReplyResult describes a composed reply.
type ReplyResult struct {
	To       string
	Subject  string
	Body     string
	DemoMode bool
}

// SendReply composes a reply and hands it to the mailer. Without a mailer
// the reply is only composed and the result is flagged as demo mode.
func (s *Service) SendReply(ctx context.Context, r email.Reply) (*ReplyResult, error) {
	r.ToEmail = strings.TrimSpace(r.ToEmail)
	if r.ToEmail == "" || r.ReplyMessage == "" {
		return nil, ErrMissingFields
	}
	if addr, err := mail.ParseAddress(r.ToEmail); err != nil || addr.Address != r.ToEmail {
		return nil, ErrInvalidRecipient
	}

	var (
		msg  email.Message
		err  error
		demo bool
	)
	if s.mailer == nil {
		msg, err = email.ComposeReply(ctx, r)
		demo = true
	} else {
		msg, err = s.mailer.SendReply(ctx, r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to send reply: %w", err)
	}

	to := r.ToEmail
	if r.ToName != "" {
		to = r.ToName + " <" + r.ToEmail + ">"
	}

	slog.Info("reply_sent", "to", r.ToEmail, "demo_mode", demo)
	return &ReplyResult{To: to, Subject: msg.Subject, Body: r.ReplyMessage, DemoMode: demo}, nil
}
