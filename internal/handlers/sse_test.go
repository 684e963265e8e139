// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/appcontext"
	"codeberg.org/oliverandrich/portfolio-gate/internal/handlers"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/session"
	"codeberg.org/oliverandrich/portfolio-gate/internal/sse"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncRecorder guards the body so the test can read while the stream writes.
type syncRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *syncRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(b)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func TestSSEEvents(t *testing.T) {
	hub := sse.NewHub()
	h := handlers.NewSSEHandler(hub).WithHeartbeat(time.Hour)

	e := echo.New()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/admin/events", nil).WithContext(ctx)
	rec := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}
	c := &appcontext.Context{
		Context: e.NewContext(req, rec),
		Admin:   &session.Data{TokenID: "tok-1", AdminID: 7},
	}

	done := make(chan error, 1)
	go func() { done <- h.Events(c) }()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(sse.EventContactMessageCreated, map[string]any{"id": 1})

	require.Eventually(t, func() bool {
		return strings.Contains(rec.body(), "event: "+sse.EventContactMessageCreated)
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	body := rec.body()
	assert.True(t, strings.HasPrefix(body, "event: connected\ndata: ok\n\n"))
	assert.Contains(t, body, `data: {"id":1}`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.AdminCount())
}
