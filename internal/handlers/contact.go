// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/contact"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/email"
	"github.com/labstack/echo/v4"
)

// CreateContactRequest is the body of POST /api/contact-messages.
type CreateContactRequest struct {
	SenderName     string `json:"sender_name"`
	SenderEmail    string `json:"sender_email"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	LocalTime      string `json:"local_time"`
	ClientTimezone string `json:"client_timezone"`
}

// CreateContactMessage stores a contact-form submission.
func (h *Handlers) CreateContactMessage(c echo.Context) error {
	var req CreateContactRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "Invalid request body")
	}

	msg, err := h.contact.Create(c.Request().Context(), contact.CreateParams{
		SenderName:     req.SenderName,
		SenderEmail:    req.SenderEmail,
		Subject:        req.Subject,
		Message:        req.Message,
		LocalTime:      req.LocalTime,
		ClientTimezone: req.ClientTimezone,
	})
	if err != nil {
		if errors.Is(err, contact.ErrMissingFields) {
			return BadRequest(c, "Missing required fields")
		}
		return internalError(c, "Failed to save message", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Message sent successfully",
		"id":      msg.ID,
	})
}

// ListContactMessages returns the latest messages.
func (h *Handlers) ListContactMessages(c echo.Context) error {
	msgs, err := h.contact.List(c.Request().Context())
	if err != nil {
		return internalError(c, "Failed to fetch messages", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": msgs})
}

// UnreadContactCount returns the number of unread messages.
func (h *Handlers) UnreadContactCount(c echo.Context) error {
	n, err := h.contact.UnreadCount(c.Request().Context())
	if err != nil {
		return internalError(c, "Failed to fetch unread count", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "unread_count": n})
}

// ContactStats returns the message counters.
func (h *Handlers) ContactStats(c echo.Context) error {
	stats, err := h.contact.Stats(c.Request().Context())
	if err != nil {
		return internalError(c, "Failed to fetch message statistics", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": stats})
}

// MarkContactRead flags a message as read.
func (h *Handlers) MarkContactRead(c echo.Context) error {
	return h.updateMessage(c, h.contact.MarkRead, "Message marked as read")
}

// MarkContactReplied flags a message as replied.
func (h *Handlers) MarkContactReplied(c echo.Context) error {
	return h.updateMessage(c, h.contact.MarkReplied, "Message marked as replied")
}

// DeleteContactMessage removes a message.
func (h *Handlers) DeleteContactMessage(c echo.Context) error {
	return h.updateMessage(c, h.contact.Delete, "Message deleted")
}

func (h *Handlers) updateMessage(c echo.Context, apply func(ctx context.Context, id int64) error, done string) error {
	id, ok := paramID(c)
	if !ok {
		return BadRequest(c, "Invalid message id")
	}

	if err := apply(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound(c, "Message not found")
		}
		return internalError(c, "Failed to update message", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": done})
}

// SendReplyRequest is the body of POST /api/send-reply.
type SendReplyRequest struct {
	ToEmail         string `json:"to_email"`
	ToName          string `json:"to_name"`
	Subject         string `json:"subject"`
	OriginalMessage string `json:"original_message"`
	ReplyMessage    string `json:"reply_message"`
}

// SendReply mails an answer to a contact message. Without a configured
// mailer the reply is reported as prepared in demo mode.
func (h *Handlers) SendReply(c echo.Context) error {
	var req SendReplyRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest(c, "Invalid request body")
	}

	res, err := h.contact.SendReply(c.Request().Context(), email.Reply{
		ToEmail:         req.ToEmail,
		ToName:          req.ToName,
		Subject:         req.Subject,
		OriginalMessage: req.OriginalMessage,
		ReplyMessage:    req.ReplyMessage,
	})
	if err != nil {
		switch {
		case errors.Is(err, contact.ErrMissingFields):
			return BadRequest(c, "Missing required fields")
		case errors.Is(err, contact.ErrInvalidRecipient):
			return BadRequest(c, "Invalid recipient email")
		}
		return internalError(c, "Failed to send reply", err)
	}

	message := "Reply sent successfully"
	if res.DemoMode {
		message = "Reply prepared (demo mode - email not sent)"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   message,
		"demo_mode": res.DemoMode,
		"replyDetails": echo.Map{
			"to":      res.To,
			"subject": res.Subject,
			"body":    res.Body,
		},
	})
}
