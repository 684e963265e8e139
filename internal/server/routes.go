// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"codeberg.org/oliverandrich/portfolio-gate/internal/handlers"
	"github.com/labstack/echo/v4"
)

func (a *App) setupRoutes(e *echo.Echo) {
	h := handlers.New(a.repo, a.access, a.contact)
	authH := handlers.NewAuth(a.auth, a.sessions, a.hub)
	events := handlers.NewSSEHandler(a.hub)
	admin := RequireAdmin(a.cfg.Auth.RequireAdminToken)

	e.GET("/", h.Root)

	api := e.Group("/api")
	api.GET("/health", h.Health)

	// Visitor gate
	api.POST("/check-session", h.CheckSession)
	api.POST("/access-requests", h.CreateAccessRequest)
	api.PATCH("/access-requests/verify", h.VerifyAccess)
	api.PATCH("/access-requests/revoke", h.RevokeAccess, admin)
	api.POST("/access-requests/reset-all", h.ResetAllSessions, admin)
	api.GET("/access-requests", h.ListAccessRequests, admin)
	api.GET("/stats", h.AccessStats, admin)

	// Contact messages
	api.POST("/contact-messages", h.CreateContactMessage)
	api.GET("/contact-messages", h.ListContactMessages, admin)
	api.GET("/contact-messages/unread", h.UnreadContactCount, admin)
	api.GET("/contact-messages/stats", h.ContactStats, admin)
	api.PATCH("/contact-messages/:id/read", h.MarkContactRead, admin)
	api.PATCH("/contact-messages/:id/replied", h.MarkContactReplied, admin)
	api.DELETE("/contact-messages/:id", h.DeleteContactMessage, admin)
	api.POST("/send-reply", h.SendReply, admin)

	// Admin identity
	api.POST("/admin/signup", authH.Signup)
	api.POST("/admin/verify-signup", authH.VerifySignup)
	api.POST("/admin/login", authH.Login)

	// Dashboard
	api.GET("/admin/tables", h.ListTables, admin)
	api.GET("/admin/tables/:tableName", h.TableRows, admin)
	api.PATCH("/admin/tables/:tableName/:id", h.UpdateTableRow, admin)
	api.DELETE("/admin/tables/:tableName/:id", h.DeleteTableRow, admin)
	api.GET("/admin/dashboard-stats", h.DashboardStats, admin)
	api.GET("/admin/events", events.Events, admin)
}
