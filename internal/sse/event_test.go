// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "simple message without event name",
			eventName: "",
			data:      "hello",
			expected:  "data: hello\n\n",
		},
		{
			name:      "simple message with event name",
			eventName: "update",
			data:      "hello",
			expected:  "event: update\ndata: hello\n\n",
		},
		{
			name:      "multiline data",
			eventName: "",
			data:      "line1\nline2\nline3",
			expected:  "data: line1\ndata: line2\ndata: line3\n\n",
		},
		{
			name:      "multiline data with event name",
			eventName: "update",
			data:      "line1\nline2",
			expected:  "event: update\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatEvent(tt.eventName, tt.data)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFormatJSONEvent(t *testing.T) {
	result, err := FormatJSONEvent(EventSessionsSwept, map[string]any{"count": 3})

	require.NoError(t, err)
	assert.Equal(t, "event: sessions.swept\ndata: {\"count\":3}\n\n", result)
}

func TestFormatJSONEvent_Unencodable(t *testing.T) {
	_, err := FormatJSONEvent("x", make(chan int))

	assert.Error(t, err)
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	ch := hub.Register("token1", 1)
	defer hub.Unregister("token1", 1, ch)

	hub.Publish(EventContactMessageCreated, map[string]any{"id": 7})

	select {
	case msg := <-ch:
		assert.Equal(t, "event: contact_message.created\ndata: {\"id\":7}\n\n", msg)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("should have received event")
	}
}

func TestHub_NotifyAdmin(t *testing.T) {
	hub := NewHub()
	own := hub.Register("token1", 1)
	other := hub.Register("token2", 2)
	defer hub.Unregister("token1", 1, own)
	defer hub.Unregister("token2", 2, other)

	hub.NotifyAdmin(1, EventAdminLogin, map[string]any{"token_id": "t-2"})

	select {
	case msg := <-own:
		assert.Equal(t, "event: admin.login\ndata: {\"token_id\":\"t-2\"}\n\n", msg)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("should have received event")
	}

	select {
	case <-other:
		t.Fatal("other admin should not receive the event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard.Publish("x", nil) })
}

func TestHeartbeat(t *testing.T) {
	// Heartbeat should be a valid SSE comment
	assert.Equal(t, ": heartbeat\n\n", Heartbeat)
	assert.Equal(t, ':', rune(Heartbeat[0]))
}
