// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext provides the custom Echo context.
package appcontext

import (
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Context is a custom Echo context carrying the authenticated admin.
type Context struct {
	echo.Context
	Admin *session.Data // nil if no valid admin token was presented
}

// GetAdmin returns the authenticated admin, or nil.
func (c *Context) GetAdmin() *session.Data {
	return c.Admin
}

// IsAuthenticated returns true if an admin token was verified.
func (c *Context) IsAuthenticated() bool {
	return c.Admin != nil
}

// AdminFrom returns the admin of a request handled through Context, or nil.
func AdminFrom(c echo.Context) *session.Data {
	if cc, ok := c.(*Context); ok {
		return cc.Admin
	}
	return nil
}
