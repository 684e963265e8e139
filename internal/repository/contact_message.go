// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
)

const contactMessageColumns = `id, sender_name, sender_email, subject, message, is_read, read_at,
	is_replied, replied_at, created_at, local_time, client_timezone`

// CreateContactMessage stores an unread, unreplied message and sets msg.ID.
func (r *Repository) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	if msg.Subject == "" {
		msg.Subject = models.DefaultSubject
	}
	id, err := r.insert(ctx, `INSERT INTO contact_messages
		(sender_name, sender_email, subject, message, is_read, is_replied, created_at, local_time, client_timezone)
		VALUES (?, ?, ?, ?, FALSE, FALSE, ?, ?, ?)`,
		msg.SenderName, msg.SenderEmail, msg.Subject, msg.Message, msg.CreatedAt, msg.LocalTime, msg.ClientTimezone)
	if err != nil {
		return err
	}
	msg.ID = id
	return nil
}

// GetContactMessage retrieves a message by ID.
func (r *Repository) GetContactMessage(ctx context.Context, id int64) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := r.get(ctx, &msg, `SELECT `+contactMessageColumns+` FROM contact_messages WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListContactMessages returns the newest messages first.
func (r *Repository) ListContactMessages(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	var msgs []models.ContactMessage
	err := r.selectAll(ctx, &msgs, `SELECT `+contactMessageColumns+`
		FROM contact_messages ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// UnreadContactCount returns the number of unread messages.
func (r *Repository) UnreadContactCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.get(ctx, &count, `SELECT COUNT(*) FROM contact_messages WHERE is_read = FALSE`); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkContactRead flags a message as read.
func (r *Repository) MarkContactRead(ctx context.Context, id int64, now time.Time) error {
	return r.execOne(ctx, `UPDATE contact_messages SET is_read = TRUE, read_at = ? WHERE id = ?`, now, id)
}

// MarkContactReplied flags a message as replied.
func (r *Repository) MarkContactReplied(ctx context.Context, id int64, now time.Time) error {
	return r.execOne(ctx, `UPDATE contact_messages SET is_replied = TRUE, replied_at = ? WHERE id = ?`, now, id)
}

// DeleteContactMessage removes a message by ID.
func (r *Repository) DeleteContactMessage(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM contact_messages WHERE id = ?`, id)
}

// ContactStats counts messages by read and replied state.
func (r *Repository) ContactStats(ctx context.Context) (*models.ContactStats, error) {
	var stats models.ContactStats
	err := r.get(ctx, &stats, `SELECT
		COUNT(*) AS total_messages,
		COUNT(CASE WHEN is_read = FALSE THEN 1 END) AS unread_messages,
		COUNT(CASE WHEN is_read = TRUE THEN 1 END) AS read_messages,
		COUNT(CASE WHEN is_replied = TRUE THEN 1 END) AS replied_messages
		FROM contact_messages`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
