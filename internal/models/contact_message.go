// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// DefaultSubject is stored when a contact form arrives without a subject.
const DefaultSubject = "No Subject"

// ContactMessage is one contact-form submission.
type ContactMessage struct { //nolint:govet // fieldalignment: readability over optimization
	ID             int64      `db:"id" json:"id"`
	SenderName     string     `db:"sender_name" json:"sender_name"`
	SenderEmail    string     `db:"sender_email" json:"sender_email"`
	Subject        string     `db:"subject" json:"subject"`
	Message        string     `db:"message" json:"message"`
	IsRead         bool       `db:"is_read" json:"is_read"`
	ReadAt         *time.Time `db:"read_at" json:"read_at"`
	IsReplied      bool       `db:"is_replied" json:"is_replied"`
	RepliedAt      *time.Time `db:"replied_at" json:"replied_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	LocalTime      string     `db:"local_time" json:"local_time"`
	ClientTimezone string     `db:"client_timezone" json:"client_timezone"`
}

// ContactStats aggregates the contact message table.
type ContactStats struct {
	TotalMessages   int64 `db:"total_messages" json:"total_messages"`
	UnreadMessages  int64 `db:"unread_messages" json:"unread_messages"`
	ReadMessages    int64 `db:"read_messages" json:"read_messages"`
	RepliedMessages int64 `db:"replied_messages" json:"replied_messages"`
}
