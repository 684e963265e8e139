// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndVerify_DemoMode(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.call(t, env.auth.Signup, http.MethodPost, "/api/admin/signup",
		`{"username":"owner","email":"owner@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["demo_mode"])
	otp, ok := body["otp"].(string)
	require.True(t, ok)
	assert.Len(t, otp, 6)

	rec, body = env.call(t, env.auth.Signup, http.MethodPost, "/api/admin/signup",
		`{"username":"owner","email":"other@example.com","password":"s3cret-pass"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, body = env.call(t, env.auth.Login, http.MethodPost, "/api/admin/login",
		`{"username":"owner","password":"s3cret-pass"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Account pending approval", body["message"])

	rec, _ = env.call(t, env.auth.VerifySignup, http.MethodPost, "/api/admin/verify-signup",
		`{"email":"owner@example.com","otp":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = env.call(t, env.auth.VerifySignup, http.MethodPost, "/api/admin/verify-signup",
		`{"email":"owner@example.com","otp":"`+otp+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestVerifySignup_ExpiredAllowsNewSignup(t *testing.T) {
	env := newTestEnv(t)
	signupBody := `{"username":"owner","email":"owner@example.com","password":"s3cret-pass"}`

	_, body := env.call(t, env.auth.Signup, http.MethodPost, "/api/admin/signup", signupBody)
	otp := body["otp"].(string)
	env.clock.Advance(time.Hour)

	rec, body := env.call(t, env.auth.VerifySignup, http.MethodPost, "/api/admin/verify-signup",
		`{"email":"owner@example.com","otp":"`+otp+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "Sign up again")

	rec, body = env.call(t, env.auth.Signup, http.MethodPost, "/api/admin/signup", signupBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.call(t, env.auth.Signup, http.MethodPost, "/api/admin/signup", `{"username":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := env.call(t, env.auth.Signup, http.MethodPost, "/api/admin/signup",
		`{"username":"owner","email":"owner@example.com","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "at least 6")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	admin := newAdmin(t, env, "owner", "s3cret-pass", true)

	t.Run("wrong password", func(t *testing.T) {
		rec, body := env.call(t, env.auth.Login, http.MethodPost, "/api/admin/login",
			`{"username":"owner","password":"wrong-pass"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid username or password", body["message"])
	})

	t.Run("issues a verifiable token", func(t *testing.T) {
		rec, body := env.call(t, env.auth.Login, http.MethodPost, "/api/admin/login",
			`{"username":"owner","password":"s3cret-pass"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		user := body["user"].(map[string]any)
		assert.Equal(t, "owner", user["username"])
		assert.NotContains(t, user, "password_hash")

		token := body["token"].(string)
		data, err := env.sessions.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, data.AdminID)

		stored, err := env.repo.GetAdminByID(context.Background(), admin.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.LoginCount)
	})

	t.Run("notifies the admin's open dashboards", func(t *testing.T) {
		rec, body := env.call(t, env.auth.Login, http.MethodPost, "/api/admin/login",
			`{"username":"owner","password":"s3cret-pass"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		data, err := env.sessions.Parse(body["token"].(string))
		require.NoError(t, err)

		events := env.events.Events()
		require.NotEmpty(t, events)
		last := events[len(events)-1]
		assert.Equal(t, sse.EventAdminLogin, last.Name)
		assert.Equal(t, admin.ID, last.AdminID)
		assert.Equal(t, data.TokenID, last.Payload.(map[string]any)["token_id"])
	})
}
