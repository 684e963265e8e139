// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package relay posts owner notifications to a hosted form-relay service.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
)

// DefaultEndpoint is the web3forms submit URL.
const DefaultEndpoint = "https://api.web3forms.com/submit"

var ErrRejected = errors.New("form relay rejected the submission")

// Client submits notifications to the relay.
type Client struct {
	endpoint  string
	accessKey string
	owner     string
	http      *http.Client
}

// New creates a relay client.
func New(cfg *config.RelayConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:  endpoint,
		accessKey: cfg.AccessKey,
		owner:     cfg.OwnerEmail,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NotifyOwner submits a notice addressed to the site owner.
func (c *Client) NotifyOwner(ctx context.Context, subject, body string) error {
	form := url.Values{}
	form.Set("access_key", c.accessKey)
	form.Set("to", c.owner)
	form.Set("subject", subject)
	form.Set("message", body)
	form.Set("from_name", "Portfolio")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting to form relay: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("reading form relay response: %w", err)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
		}
		return fmt.Errorf("decoding form relay response: %w", err)
	}
	if resp.StatusCode >= 300 || !out.Success {
		return fmt.Errorf("%w: %s", ErrRejected, out.Message)
	}
	return nil
}
