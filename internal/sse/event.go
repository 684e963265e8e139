// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Dashboard event names.
const (
	EventConnected             = "connected"
	EventAccessRequestCreated  = "access_request.created"
	EventAccessRequestVerified = "access_request.verified"
	EventContactMessageCreated = "contact_message.created"
	EventSessionsSwept         = "sessions.swept"
	EventAdminLogin            = "admin.login"
)

// FormatEvent formats a message as an SSE event with optional event name.
// Multiline content is properly prefixed with "data:".
func FormatEvent(eventName, data string) string {
	var sb strings.Builder

	if eventName != "" {
		sb.WriteString(fmt.Sprintf("event: %s\n", eventName))
	}

	for _, line := range strings.Split(data, "\n") {
		sb.WriteString(fmt.Sprintf("data: %s\n", line))
	}

	sb.WriteString("\n") // Empty line marks end of event
	return sb.String()
}

// FormatJSONEvent formats payload as a JSON-encoded SSE event.
func FormatJSONEvent(eventName string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return FormatEvent(eventName, string(data)), nil
}

// Heartbeat is an SSE comment that keeps the connection alive.
// Comments (lines starting with :) are ignored by SSE clients.
const Heartbeat = ": heartbeat\n\n"

// Publisher emits dashboard events.
type Publisher interface {
	Publish(eventName string, payload any)
}

// Publish broadcasts a JSON event to every connected admin.
func (h *Hub) Publish(eventName string, payload any) {
	msg, err := FormatJSONEvent(eventName, payload)
	if err != nil {
		slog.Error("sse_encode_failed", "event", eventName, "error", err)
		return
	}
	h.Broadcast(msg)
}

// AdminNotifier emits events to the open streams of a single admin.
type AdminNotifier interface {
	NotifyAdmin(adminID int64, eventName string, payload any)
}

// NotifyAdmin sends a JSON event to every stream of the given admin.
func (h *Hub) NotifyAdmin(adminID int64, eventName string, payload any) {
	msg, err := FormatJSONEvent(eventName, payload)
	if err != nil {
		slog.Error("sse_encode_failed", "event", eventName, "error", err)
		return
	}
	h.SendToAdmin(adminID, msg)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(string, any) {}
