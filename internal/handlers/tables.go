// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"github.com/labstack/echo/v4"
)

// ListTables returns the browsable tables.
func (h *Handlers) ListTables(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": repository.ListTables()})
}

// TableRows returns the rows of one table.
func (h *Handlers) TableRows(c echo.Context) error {
	rows, err := h.repo.ListRows(c.Request().Context(), c.Param("tableName"))
	if err != nil {
		if errors.Is(err, repository.ErrUnknownTable) {
			return BadRequest(c, "Invalid table name")
		}
		return internalError(c, "Failed to fetch table data", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"columns": rows.Columns,
		"data":    rows.Data,
	})
}

// UpdateTableRow applies a field mapping to one row.
func (h *Handlers) UpdateTableRow(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return BadRequest(c, "Invalid record id")
	}

	fields := map[string]any{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &fields); err != nil {
		return BadRequest(c, "Invalid request body")
	}

	err := h.repo.UpdateRow(c.Request().Context(), c.Param("tableName"), id, fields)
	if err != nil {
		if code, msg := tableError(err); code != 0 {
			return fail(c, code, msg)
		}
		return internalError(c, "Failed to update record", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Record updated successfully"})
}

// DeleteTableRow removes one row.
func (h *Handlers) DeleteTableRow(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return BadRequest(c, "Invalid record id")
	}

	if err := h.repo.DeleteRow(c.Request().Context(), c.Param("tableName"), id); err != nil {
		if code, msg := tableError(err); code != 0 {
			return fail(c, code, msg)
		}
		return internalError(c, "Failed to delete record", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Record deleted successfully"})
}

// tableError maps table editor errors onto a client status and message.
// A zero status means err is not a client error.
func tableError(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrUnknownTable):
		return http.StatusBadRequest, "Invalid table name"
	case errors.Is(err, repository.ErrReadOnlyTable):
		return http.StatusBadRequest, "This table cannot be modified"
	case errors.Is(err, repository.ErrUnknownField), errors.Is(err, repository.ErrInvalidValue):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrNoFields):
		return http.StatusBadRequest, "No valid fields to update"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Record not found"
	}
	return 0, ""
}

// DashboardStats returns the combined dashboard counters.
func (h *Handlers) DashboardStats(c echo.Context) error {
	ctx := c.Request().Context()

	accessStats, err := h.access.Stats(ctx)
	if err != nil {
		return internalError(c, "Failed to fetch statistics", err)
	}
	contactStats, err := h.contact.Stats(ctx)
	if err != nil {
		return internalError(c, "Failed to fetch statistics", err)
	}
	admins, pending, err := h.repo.CountAdminUsers(ctx)
	if err != nil {
		return internalError(c, "Failed to fetch statistics", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": models.DashboardStats{
			Access:        *accessStats,
			Contact:       *contactStats,
			AdminUsers:    admins,
			PendingAdmins: pending,
		},
	})
}
