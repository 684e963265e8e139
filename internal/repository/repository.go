// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package repository implements the SQL statements behind every endpoint.
// Queries are written with ? placeholders and rebound for the driver in use.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vinovest/sqlx"
)

// ErrNotFound is returned when a statement matched no row.
var ErrNotFound = errors.New("record not found")

// Repository wraps sqlx for database operations.
type Repository struct {
	db *sqlx.DB
}

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying sqlx DB for direct access.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// Ping checks that the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// containsClause matches a case-sensitive substring of column against the
// next placeholder. SQLite's LIKE folds ASCII case, PostgreSQL's does not.
func (r *Repository) containsClause(column string) string {
	if r.db.DriverName() == "postgres" {
		return "strpos(" + column + ", ?) > 0"
	}
	return "instr(" + column + ", ?) > 0"
}

func (r *Repository) get(ctx context.Context, dest any, query string, args ...any) error {
	err := r.db.GetContext(ctx, dest, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repository) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return r.db.SelectContext(ctx, dest, r.db.Rebind(query), args...)
}

// exec runs a statement and returns the number of affected rows.
func (r *Repository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// execOne runs a single-row statement and maps zero affected rows to ErrNotFound.
func (r *Repository) execOne(ctx context.Context, query string, args ...any) error {
	n, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// insert runs an INSERT ... RETURNING id statement.
func (r *Repository) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := r.db.QueryRowxContext(ctx, r.db.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
