// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/appcontext"
	"codeberg.org/oliverandrich/portfolio-gate/internal/sse"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// DefaultHeartbeat keeps idle event streams open through proxies.
const DefaultHeartbeat = 30 * time.Second

// SSEHandler streams dashboard events to admins.
type SSEHandler struct {
	hub       *sse.Hub
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSE handler.
func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub, heartbeat: DefaultHeartbeat}
}

// WithHeartbeat overrides the heartbeat interval.
func (h *SSEHandler) WithHeartbeat(d time.Duration) *SSEHandler {
	h.heartbeat = d
	return h
}

// Events handles the SSE connection endpoint.
func (h *SSEHandler) Events(c echo.Context) error {
	ctx := c.Request().Context()

	// Without token enforcement the stream is anonymous.
	tokenID, adminID := "anon-"+uuid.NewString(), int64(0)
	if admin := appcontext.AdminFrom(c); admin != nil {
		tokenID, adminID = admin.TokenID, admin.AdminID
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	ch := h.hub.Register(tokenID, adminID)
	defer h.hub.Unregister(tokenID, adminID, ch)

	if _, err := w.Write([]byte(sse.FormatEvent(sse.EventConnected, "ok"))); err != nil {
		return nil
	}
	w.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Write([]byte(sse.Heartbeat)); err != nil {
				return nil // Client disconnected
			}
			w.Flush()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if _, err := w.Write([]byte(msg)); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
