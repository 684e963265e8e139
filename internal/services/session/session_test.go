// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validHashKey is a valid 32-byte hex-encoded key for testing
const validHashKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// validBlockKey is a valid 32-byte hex-encoded key for encryption testing
const validBlockKey = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"

func newTestConfig() *config.SessionConfig {
	return &config.SessionConfig{
		MaxAge:  3600, // 1 hour
		HashKey: validHashKey,
	}
}

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	mgr, err := session.NewManager(newTestConfig())
	require.NoError(t, err)
	return mgr
}

func TestNewManager(t *testing.T) {
	mgr, err := session.NewManager(newTestConfig())

	require.NoError(t, err)
	assert.Equal(t, time.Hour, mgr.MaxAge())
}

func TestNewManager_WithBlockKey(t *testing.T) {
	cfg := newTestConfig()
	cfg.BlockKey = validBlockKey

	mgr, err := session.NewManager(cfg)

	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestNewManager_InvalidKeys(t *testing.T) {
	tests := []struct {
		name     string
		hashKey  string
		blockKey string
		contains string
	}{
		{"hash key not hex", "not-hex-encoded", "", "invalid session hash key"},
		{"hash key wrong length", "0123456789abcdef", "", "must be 32 bytes"},
		{"block key not hex", validHashKey, "not-hex-encoded", "invalid session block key"},
		{"block key wrong length", validHashKey, "0123456789abcdef", "must be 32 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := session.NewManager(&config.SessionConfig{HashKey: tt.hashKey, BlockKey: tt.blockKey})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestNewManager_DevMode_GeneratesKey(t *testing.T) {
	mgr, err := session.NewManager(&config.SessionConfig{})

	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, mgr.MaxAge())
}

func TestIssueAndParse(t *testing.T) {
	mgr := newTestManager(t)

	token, issued, err := mgr.Issue(123, "ann")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, issued.TokenID)

	data, err := mgr.Parse(token)

	require.NoError(t, err)
	assert.Equal(t, int64(123), data.AdminID)
	assert.Equal(t, "ann", data.Username)
	assert.Equal(t, issued.TokenID, data.TokenID)
	assert.WithinDuration(t, issued.IssuedAt.Add(time.Hour), data.ExpiresAt, time.Second)
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	mgr := newTestManager(t)

	_, a, err := mgr.Issue(1, "ann")
	require.NoError(t, err)
	_, b, err := mgr.Issue(1, "ann")
	require.NoError(t, err)

	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestParse_Errors(t *testing.T) {
	mgr := newTestManager(t)
	token, _, err := mgr.Issue(123, "ann")
	require.NoError(t, err)

	_, err = mgr.Parse("")
	assert.ErrorIs(t, err, session.ErrNoToken)

	_, err = mgr.Parse("invalid-token-value")
	assert.ErrorIs(t, err, session.ErrInvalidToken)

	_, err = mgr.Parse(token[:len(token)-5] + "XXXXX")
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	now := time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)
	mgr := newTestManager(t).WithClock(func() time.Time { return now })
	token, _, err := mgr.Issue(123, "ann")
	require.NoError(t, err)

	now = now.Add(time.Hour)

	_, err = mgr.Parse(token)
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestParse_DifferentManager(t *testing.T) {
	mgr1 := newTestManager(t)
	token, _, err := mgr1.Issue(123, "ann")
	require.NoError(t, err)

	mgr2, err := session.NewManager(&config.SessionConfig{MaxAge: 3600, HashKey: validBlockKey})
	require.NoError(t, err)

	_, err = mgr2.Parse(token)
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestParseRequest(t *testing.T) {
	mgr := newTestManager(t)
	token, _, err := mgr.Issue(7, "ann")
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		data, err := mgr.ParseRequest(req)
		require.NoError(t, err)
		assert.Equal(t, int64(7), data.AdminID)
	})

	t.Run("query parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)

		data, err := mgr.ParseRequest(req)
		require.NoError(t, err)
		assert.Equal(t, int64(7), data.AdminID)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic "+token)

		_, err := mgr.ParseRequest(req)
		assert.ErrorIs(t, err, session.ErrNoToken)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		_, err := mgr.ParseRequest(req)
		assert.ErrorIs(t, err, session.ErrNoToken)
	})
}
