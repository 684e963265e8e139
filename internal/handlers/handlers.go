// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON API endpoints.
package handlers

import (
	"net/http"
	"strconv"

	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/access"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/contact"
	"github.com/labstack/echo/v4"
)

// Handlers contains the visitor, contact and table endpoints.
type Handlers struct {
	repo    *repository.Repository
	access  *access.Service
	contact *contact.Service
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, accessSvc *access.Service, contactSvc *contact.Service) *Handlers {
	return &Handlers{repo: repo, access: accessSvc, contact: contactSvc}
}

// Root answers the platform health probe on /.
func (h *Handlers) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"message": "Portfolio Backend API is running",
	})
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.repo.Ping(c.Request().Context()); err != nil {
		return internalError(c, "Database unavailable", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"message": "Portfolio Backend API is running",
	})
}

// paramID parses the :id path parameter.
func paramID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
