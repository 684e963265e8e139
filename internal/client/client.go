// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package client is a typed HTTP client for the portfolio-gate API and the
// visitor and admin flows built on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// Client calls the API. It is safe for sequential use only.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the API rooted at baseURL, e.g.
// "http://localhost:3000/api".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// SetToken sets the admin bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current admin bearer token.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var env struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &env)
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Result is the envelope every endpoint answers with.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SessionStatus is the answer of the session gate.
type SessionStatus struct {
	Result
	HasActiveSession bool   `json:"hasActiveSession"`
	RedirectURL      string `json:"redirect_url"`
	VisitorName      string `json:"visitor_name"`
}

// CheckSession asks whether the visitor may skip the OTP step.
func (c *Client) CheckSession(ctx context.Context, email, project string) (*SessionStatus, error) {
	var out SessionStatus
	err := c.do(ctx, http.MethodPost, "/check-session", map[string]string{
		"visitor_email": email,
		"project_name":  project,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AccessRequest is the body of a new access request.
type AccessRequest struct {
	VisitorName    string `json:"visitor_name"`
	VisitorEmail   string `json:"visitor_email"`
	ProjectName    string `json:"project_name"`
	ProjectType    string `json:"project_type,omitempty"`
	RedirectURL    string `json:"redirect_url,omitempty"`
	OTPCode        string `json:"otp_code"`
	LocalTime      string `json:"local_time,omitempty"`
	ClientTimezone string `json:"client_timezone,omitempty"`
}

// CreateAccessRequest stores a pending access request and returns its id.
func (c *Client) CreateAccessRequest(ctx context.Context, req AccessRequest) (int64, error) {
	var out struct {
		Result
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/access-requests", req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Verification is the answer of a successful verify call.
type Verification struct {
	Result
	ExpiresAt string `json:"expires_at"`
}

// VerifyAccess activates the session for email and code.
func (c *Client) VerifyAccess(ctx context.Context, email, code string) (*Verification, error) {
	var out Verification
	err := c.do(ctx, http.MethodPatch, "/access-requests/verify", map[string]string{
		"visitor_email": email,
		"otp_code":      code,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup is the answer of an admin signup.
type Signup struct {
	Result
	DemoMode bool   `json:"demo_mode"`
	OTP      string `json:"otp"`
}

// Signup registers a pending admin.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*Signup, error) {
	var out Signup
	err := c.do(ctx, http.MethodPost, "/admin/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifySignup approves a pending admin.
func (c *Client) VerifySignup(ctx context.Context, email, code string) (*Result, error) {
	var out Result
	err := c.do(ctx, http.MethodPost, "/admin/verify-signup", map[string]string{
		"email": email,
		"otp":   code,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login is the answer of a successful admin login.
type Login struct {
	Result
	User      models.AdminProfile `json:"user"`
	Token     string              `json:"token"`
	ExpiresAt string              `json:"expires_at"`
}

// Login authenticates an admin and keeps the issued token.
func (c *Client) Login(ctx context.Context, username, password string) (*Login, error) {
	var out Login
	err := c.do(ctx, http.MethodPost, "/admin/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Table describes one browsable table.
type Table struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon"`
}

// Tables lists the browsable tables.
func (c *Client) Tables(ctx context.Context) ([]Table, error) {
	var out struct {
		Result
		Data []Table `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/tables", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Rows is the content of one table.
type Rows struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

// Rows returns the rows of table.
func (c *Client) Rows(ctx context.Context, table string) (*Rows, error) {
	var out Rows
	if err := c.do(ctx, http.MethodGet, "/admin/tables/"+url.PathEscape(table), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func rowPath(table string, id int64) string {
	return "/admin/tables/" + url.PathEscape(table) + "/" + strconv.FormatInt(id, 10)
}

// UpdateRow applies fields to one row.
func (c *Client) UpdateRow(ctx context.Context, table string, id int64, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, rowPath(table, id), fields, nil)
}

// DeleteRow removes one row.
func (c *Client) DeleteRow(ctx context.Context, table string, id int64) error {
	return c.do(ctx, http.MethodDelete, rowPath(table, id), nil, nil)
}

// DashboardStats returns the combined dashboard counters.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var out struct {
		Result
		Data models.DashboardStats `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/dashboard-stats", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// MarkRead flags a contact message as read.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPatch, "/contact-messages/"+strconv.FormatInt(id, 10)+"/read", nil, nil)
}

// MarkReplied flags a contact message as replied.
func (c *Client) MarkReplied(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPatch, "/contact-messages/"+strconv.FormatInt(id, 10)+"/replied", nil, nil)
}

// Reply is the body of a send-reply call.
type Reply struct {
	ToEmail         string `json:"to_email"`
	ToName          string `json:"to_name"`
	Subject         string `json:"subject"`
	OriginalMessage string `json:"original_message"`
	ReplyMessage    string `json:"reply_message"`
}

// ReplyOutcome is the answer of a send-reply call.
type ReplyOutcome struct {
	Result
	DemoMode bool `json:"demo_mode"`
	Details  struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	} `json:"replyDetails"`
}

// SendReply mails an answer to a contact message.
func (c *Client) SendReply(ctx context.Context, r Reply) (*ReplyOutcome, error) {
	var out ReplyOutcome
	if err := c.do(ctx, http.MethodPost, "/send-reply", r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
