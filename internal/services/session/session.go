// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session issues and verifies the signed bearer tokens handed out
// on admin login.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const tokenName = "admin_token"

var (
	ErrNoToken      = errors.New("no admin token")
	ErrInvalidToken = errors.New("invalid admin token")
)

// Data is the payload carried by an admin token.
type Data struct {
	TokenID   string    `json:"tid"`
	AdminID   int64     `json:"aid"`
	Username  string    `json:"usr"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// Manager signs and verifies admin tokens.
type Manager struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	now    func() time.Time
}

// NewManager creates a token manager. An empty hash key generates a random
// one, which invalidates all tokens on restart.
func NewManager(cfg *config.SessionConfig) (*Manager, error) {
	hashKey, err := decodeKey(cfg.HashKey, "hash")
	if err != nil {
		return nil, err
	}
	if hashKey == nil {
		slog.Warn("session_hash_key_generated", "hint", "set --session-hash-key to keep admin tokens valid across restarts")
		hashKey = securecookie.GenerateRandomKey(32)
	}

	blockKey, err := decodeKey(cfg.BlockKey, "block")
	if err != nil {
		return nil, err
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 86400
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(maxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		codec:  codec,
		maxAge: time.Duration(maxAge) * time.Second,
		now:    time.Now,
	}, nil
}

func decodeKey(value, name string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid session %s key: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid session %s key: must be 32 bytes, got %d", name, len(key))
	}
	return key, nil
}

// WithClock replaces the clock used for issuing and expiry checks.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// MaxAge returns the token lifetime.
func (m *Manager) MaxAge() time.Duration {
	return m.maxAge
}

// Issue creates a signed token for an admin.
func (m *Manager) Issue(adminID int64, username string) (string, *Data, error) {
	now := m.now().UTC()
	data := &Data{
		TokenID:   uuid.NewString(),
		AdminID:   adminID,
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.maxAge),
	}

	token, err := m.codec.Encode(tokenName, data)
	if err != nil {
		return "", nil, fmt.Errorf("encoding admin token: %w", err)
	}
	return token, data, nil
}

// Parse verifies a token and returns its payload.
func (m *Manager) Parse(token string) (*Data, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	var data Data
	if err := m.codec.Decode(tokenName, token, &data); err != nil {
		return nil, ErrInvalidToken
	}
	if !m.now().Before(data.ExpiresAt) {
		return nil, ErrInvalidToken
	}
	return &data, nil
}

// ParseRequest reads the token from the Authorization header, falling back
// to the token query parameter for EventSource clients.
func (m *Manager) ParseRequest(r *http.Request) (*Data, error) {
	return m.Parse(TokenFromRequest(r))
}

// TokenFromRequest extracts a bearer token from r.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
