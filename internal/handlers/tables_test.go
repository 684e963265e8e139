// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
	"codeberg.org/oliverandrich/portfolio-gate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTables(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.call(t, env.h.ListTables, http.MethodGet, "/api/admin/tables", "")

	data := body["data"].([]any)
	require.Len(t, data, 3)
	first := data[0].(map[string]any)
	assert.Equal(t, "visitor_access_requests", first["name"])
	assert.Equal(t, "Access Requests", first["displayName"])
}

func TestTableRows(t *testing.T) {
	env := newTestEnv(t)
	newAdmin(t, env, "owner", "s3cret-pass", true)

	rec, body := env.call(t, env.h.TableRows, http.MethodGet, "/api/admin/tables/admin_users", "",
		"tableName", "admin_users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, body["columns"], "password_hash")
	rows := body["data"].([]any)
	require.Len(t, rows, 1)
	assert.NotContains(t, rows[0].(map[string]any), "signup_otp")

	rec, body = env.call(t, env.h.TableRows, http.MethodGet, "/api/admin/tables/users", "", "tableName", "users")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid table name", body["message"])
}

func TestUpdateTableRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := testutil.NewTestAccessRequest(t, env.repo, "a@x.com", "demo", "123456")
	id := strconv.FormatInt(req.ID, 10)
	path := "/api/admin/tables/visitor_access_requests/" + id

	t.Run("toggles status and drops denied keys", func(t *testing.T) {
		rec, body := env.call(t, env.h.UpdateTableRow, http.MethodPatch, path,
			`{"status_id":1,"id":999,"created_at":"2000-01-01T00:00:00Z"}`,
			"tableName", "visitor_access_requests", "id", id)
		require.Equal(t, http.StatusOK, rec.Code, body["message"])

		stored, err := env.repo.GetAccessRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, stored.StatusID)
		assert.True(t, stored.CreatedAt.Equal(testutil.Now))
	})

	t.Run("admin users are read-only", func(t *testing.T) {
		admin := newAdmin(t, env, "owner", "s3cret-pass", false)
		adminID := strconv.FormatInt(admin.ID, 10)

		rec, _ := env.call(t, env.h.UpdateTableRow, http.MethodPatch, "/api/admin/tables/admin_users/"+adminID,
			`{"is_approved":true}`, "tableName", "admin_users", "id", adminID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		stored, err := env.repo.GetAdminByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsApproved)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		rec, _ := env.call(t, env.h.UpdateTableRow, http.MethodPatch, path,
			`{"nickname":"x"}`, "tableName", "visitor_access_requests", "id", id)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("only denied keys leaves nothing to update", func(t *testing.T) {
		rec, body := env.call(t, env.h.UpdateTableRow, http.MethodPatch, path,
			`{"id":1}`, "tableName", "visitor_access_requests", "id", id)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No valid fields to update", body["message"])
	})

	t.Run("missing row", func(t *testing.T) {
		rec, body := env.call(t, env.h.UpdateTableRow, http.MethodPatch, "/api/admin/tables/visitor_access_requests/9999",
			`{"status_id":2}`, "tableName", "visitor_access_requests", "id", "9999")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Record not found", body["message"])
	})
}

func TestDeleteTableRow(t *testing.T) {
	env := newTestEnv(t)
	msg := testutil.NewTestContactMessage(t, env.repo, "a@x.com", "Hello")
	id := strconv.FormatInt(msg.ID, 10)

	rec, _ := env.call(t, env.h.DeleteTableRow, http.MethodDelete, "/api/admin/tables/contact_messages/"+id, "",
		"tableName", "contact_messages", "id", id)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.call(t, env.h.DeleteTableRow, http.MethodDelete, "/api/admin/tables/contact_messages/"+id, "",
		"tableName", "contact_messages", "id", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.call(t, env.h.DeleteTableRow, http.MethodDelete, "/api/admin/tables/admin_users/1", "",
		"tableName", "admin_users", "id", "1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	testutil.NewTestSession(t, env.repo, "a@x.com", "demo", testutil.Now.Add(time.Hour))
	testutil.NewTestContactMessage(t, env.repo, "a@x.com", "Hello")
	newAdmin(t, env, "owner", "s3cret-pass", true)
	newAdmin(t, env, "pending", "s3cret-pass", false)

	rec, body := env.call(t, env.h.DashboardStats, http.MethodGet, "/api/admin/dashboard-stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["admin_users"])
	assert.Equal(t, float64(1), data["pending_admins"])
	assert.Equal(t, float64(1), data["access_requests"].(map[string]any)["active_sessions"])
	assert.Equal(t, float64(1), data["contact_messages"].(map[string]any)["unread_messages"])
}
