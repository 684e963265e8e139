// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models defines the rows stored in the relational store.
package models

// Table names known to the store.
const (
	TableAccessRequests  = "visitor_access_requests"
	TableContactMessages = "contact_messages"
	TableAdminUsers      = "admin_users"
)

// AllTables returns every table in the order the admin browser lists them.
func AllTables() []string {
	return []string{
		TableAccessRequests,
		TableContactMessages,
		TableAdminUsers,
	}
}
