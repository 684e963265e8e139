// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// fail writes the error envelope shared by every endpoint.
func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{"success": false, "message": message})
}

// internalError logs err once and answers with a generic 500.
func internalError(c echo.Context, message string, err error) error {
	slog.ErrorContext(c.Request().Context(), "request_failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err,
	)
	return fail(c, http.StatusInternalServerError, message)
}

// BadRequest answers with a 400 envelope.
func BadRequest(c echo.Context, message string) error {
	return fail(c, http.StatusBadRequest, message)
}

// NotFound answers with a 404 envelope.
func NotFound(c echo.Context, message string) error {
	return fail(c, http.StatusNotFound, message)
}

// Unauthorized answers with a 401 envelope.
func Unauthorized(c echo.Context, message string) error {
	return fail(c, http.StatusUnauthorized, message)
}

// ErrorHandler renders router-level errors (unknown routes, wrong
// methods, oversized bodies, recovered panics) in the JSON envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "unhandled_error", "path", c.Request().URL.Path, "error", err)
		message = http.StatusText(code)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = fail(c, code, message)
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
