// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
)

// Errors returned by the generic table browser.
var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrReadOnlyTable = errors.New("table is read-only")
	ErrUnknownField  = errors.New("unknown field")
	ErrInvalidValue  = errors.New("invalid value")
	ErrNoFields      = errors.New("no updatable fields")
)

// MaxTableRows caps the rows returned by ListRows.
const MaxTableRows = 100

// ColumnKind selects how a payload value is coerced before it is bound.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindBool
	KindInt
	KindTime
)

type column struct {
	name     string
	kind     ColumnKind
	editable bool
	nullable bool
	check    func(any) error
}

type tableSpec struct {
	info     TableInfo
	columns  []column
	editable bool
}

// TableInfo describes a browsable table.
type TableInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon"`
}

// TableRows is one page of a browsed table.
type TableRows struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

// deniedFields are dropped from update payloads without an error.
var deniedFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"password_hash": true,
	"otp_code":      true,
	"signup_otp":    true,
}

func checkStatus(v any) error {
	if n, ok := v.(int64); ok && (models.Status(n) == models.StatusActive || models.Status(n) == models.StatusInactive) {
		return nil
	}
	return fmt.Errorf("%w: status_id must be 1 or 2", ErrInvalidValue)
}

var tables = []tableSpec{
	{
		info:     TableInfo{Name: models.TableAccessRequests, DisplayName: "Access Requests", Icon: "🔐"},
		editable: true,
		columns: []column{
			{name: "id", kind: KindInt},
			{name: "visitor_name", kind: KindString, editable: true},
			{name: "visitor_email", kind: KindString, editable: true},
			{name: "project_name", kind: KindString, editable: true},
			{name: "project_type", kind: KindString, editable: true},
			{name: "redirect_url", kind: KindString, editable: true},
			{name: "otp_code", kind: KindString},
			{name: "is_verified", kind: KindBool, editable: true},
			{name: "status_id", kind: KindInt, editable: true, check: checkStatus},
			{name: "created_at", kind: KindTime},
			{name: "verified_at", kind: KindTime, editable: true, nullable: true},
			{name: "last_access_at", kind: KindTime, editable: true, nullable: true},
			{name: "expires_at", kind: KindTime, editable: true, nullable: true},
			{name: "local_time", kind: KindString, editable: true},
			{name: "client_timezone", kind: KindString, editable: true},
		},
	},
	{
		info:     TableInfo{Name: models.TableContactMessages, DisplayName: "Contact Messages", Icon: "📧"},
		editable: true,
		columns: []column{
			{name: "id", kind: KindInt},
			{name: "sender_name", kind: KindString, editable: true},
			{name: "sender_email", kind: KindString, editable: true},
			{name: "subject", kind: KindString, editable: true},
			{name: "message", kind: KindString, editable: true},
			{name: "is_read", kind: KindBool, editable: true},
			{name: "read_at", kind: KindTime, editable: true, nullable: true},
			{name: "is_replied", kind: KindBool, editable: true},
			{name: "replied_at", kind: KindTime, editable: true, nullable: true},
			{name: "created_at", kind: KindTime},
			{name: "local_time", kind: KindString, editable: true},
			{name: "client_timezone", kind: KindString, editable: true},
		},
	},
	{
		info: TableInfo{Name: models.TableAdminUsers, DisplayName: "Admin Users", Icon: "👤"},
		columns: []column{
			{name: "id", kind: KindInt},
			{name: "username", kind: KindString},
			{name: "email", kind: KindString},
			{name: "is_approved", kind: KindBool},
			{name: "last_login_at", kind: KindTime},
			{name: "login_count", kind: KindInt},
			{name: "created_at", kind: KindTime},
		},
	},
}

func lookupTable(name string) (*tableSpec, error) {
	for i := range tables {
		if tables[i].info.Name == name {
			return &tables[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
}

func lookupWritableTable(name string) (*tableSpec, error) {
	spec, err := lookupTable(name)
	if err != nil {
		return nil, err
	}
	if !spec.editable {
		return nil, fmt.Errorf("%w: %s", ErrReadOnlyTable, name)
	}
	return spec, nil
}

func (t *tableSpec) column(name string) (column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func (t *tableSpec) columnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// ListTables returns the browsable tables.
func ListTables() []TableInfo {
	infos := make([]TableInfo, len(tables))
	for i, t := range tables {
		infos[i] = t.info
	}
	return infos
}

// ListRows returns up to MaxTableRows rows of a whitelisted table, oldest first.
func (r *Repository) ListRows(ctx context.Context, table string) (*TableRows, error) {
	spec, err := lookupTable(table)
	if err != nil {
		return nil, err
	}

	cols := spec.columnNames()
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id ASC LIMIT ?", strings.Join(cols, ", "), spec.info.Name)
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), MaxTableRows)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := &TableRows{Columns: cols, Data: []map[string]any{}}
	for rows.Next() {
		row := make(map[string]any, len(cols))
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for _, c := range spec.columns {
			row[c.name] = normalize(c.kind, row[c.name])
		}
		result.Data = append(result.Data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalize maps driver values onto JSON-friendly types.
func normalize(kind ColumnKind, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch kind {
	case KindBool:
		switch x := v.(type) {
		case int64:
			return x != 0
		case string:
			return x == "1" || strings.EqualFold(x, "true")
		}
	case KindTime:
		if t, ok := v.(time.Time); ok {
			return t.UTC()
		}
	}
	return v
}

// UpdateRow applies a field-to-value mapping to one row of a writable table.
// Denied fields are dropped, unknown fields are rejected.
func (r *Repository) UpdateRow(ctx context.Context, table string, id int64, fields map[string]any) error {
	spec, err := lookupWritableTable(table)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, key := range keys {
		if deniedFields[key] {
			continue
		}
		col, ok := spec.column(key)
		if !ok || !col.editable {
			return fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
		val, err := coerce(col, fields[key])
		if err != nil {
			return err
		}
		sets = append(sets, col.name+" = ?")
		args = append(args, val)
	}
	if len(sets) == 0 {
		return ErrNoFields
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", spec.info.Name, strings.Join(sets, ", "))
	return r.execOne(ctx, query, args...)
}

// DeleteRow removes one row of a writable table.
func (r *Repository) DeleteRow(ctx context.Context, table string, id int64) error {
	spec, err := lookupWritableTable(table)
	if err != nil {
		return err
	}
	return r.execOne(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", spec.info.Name), id)
}

// coerce converts a decoded JSON value into the Go type bound for col.
func coerce(col column, v any) (any, error) {
	if v == nil {
		if col.nullable {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s cannot be null", ErrInvalidValue, col.name)
	}

	var (
		out any
		ok  bool
	)
	switch col.kind {
	case KindString:
		out, ok = v.(string)
	case KindBool:
		out, ok = toBool(v)
	case KindInt:
		out, ok = toInt(v)
	case KindTime:
		out, ok = toTime(v)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidValue, col.name)
	}
	if col.check != nil {
		if err := col.check(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case float64:
		if x == 0 || x == 1 {
			return x == 1, true
		}
	case string:
		b, err := strconv.ParseBool(x)
		return b, err == nil
	}
	return false, false
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) {
			return int64(x), true
		}
	case int:
		return int64(x), true
	case int64:
		return x, true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Truncate(time.Second), true
	case string:
		t, err := time.Parse(time.RFC3339, x)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC().Truncate(time.Second), true
	}
	return time.Time{}, false
}
