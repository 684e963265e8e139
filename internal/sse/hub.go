// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package sse fans dashboard events out to connected admin clients.
package sse

import (
	"sync"

	"github.com/samber/lo"
)

// client is one open event stream.
type client struct {
	ch      chan string
	adminID int64
}

// Hub tracks event streams per admin token and per admin.
// Several tabs opened with the same token share a token ID, and one admin
// may hold several tokens.
type Hub struct {
	clients     map[string][]client
	adminTokens map[int64][]string
	mu          sync.RWMutex
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[string][]client),
		adminTokens: make(map[int64][]string),
	}
}

// Register adds a stream for the given token and admin and returns the
// channel it receives events on.
func (h *Hub) Register(tokenID string, adminID int64) chan string {
	ch := make(chan string, 10) // buffered to prevent blocking

	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[tokenID] = append(h.clients[tokenID], client{ch: ch, adminID: adminID})

	if !lo.Contains(h.adminTokens[adminID], tokenID) {
		h.adminTokens[adminID] = append(h.adminTokens[adminID], tokenID)
	}

	return ch
}

// Unregister removes a stream and closes its channel.
func (h *Hub) Unregister(tokenID string, adminID int64, ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[tokenID] = lo.Filter(h.clients[tokenID], func(c client, _ int) bool {
		return c.ch != ch
	})

	if len(h.clients[tokenID]) == 0 {
		delete(h.clients, tokenID)

		h.adminTokens[adminID] = lo.Without(h.adminTokens[adminID], tokenID)
		if len(h.adminTokens[adminID]) == 0 {
			delete(h.adminTokens, adminID)
		}
	}

	close(ch)
}

// SendToAdmin sends a message to every stream of the given admin.
func (h *Hub) SendToAdmin(adminID int64, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, tokenID := range h.adminTokens[adminID] {
		h.sendLocked(h.clients[tokenID], message)
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		h.sendLocked(clients, message)
	}
}

func (h *Hub) sendLocked(clients []client, message string) {
	for _, c := range clients {
		select {
		case c.ch <- message:
		default:
			// Channel full, skip
		}
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return lo.SumBy(lo.Values(h.clients), func(clients []client) int {
		return len(clients)
	})
}

// AdminCount returns the number of admins with open streams.
func (h *Hub) AdminCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.adminTokens)
}
