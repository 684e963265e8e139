// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package notify delivers out-of-band notices to the site owner.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Notifier sends a notice to the site owner.
type Notifier interface {
	NotifyOwner(ctx context.Context, subject, body string) error
}

// Chain tries each notifier in order and stops at the first success.
type Chain []Notifier

// NotifyOwner implements Notifier.
func (c Chain) NotifyOwner(ctx context.Context, subject, body string) error {
	if len(c) == 0 {
		return ErrUnconfigured
	}
	var errs []error
	for _, n := range c {
		err := n.NotifyOwner(ctx, subject, body)
		if err == nil {
			return nil
		}
		slog.Warn("owner_notify_failed", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ErrUnconfigured is returned by an empty chain.
var ErrUnconfigured = errors.New("no owner notification channel configured")

// New builds a chain from the non-nil notifiers. It returns nil when none
// are given, which callers treat as demo mode.
func New(notifiers ...Notifier) Notifier {
	var chain Chain
	for _, n := range notifiers {
		if n != nil {
			chain = append(chain, n)
		}
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}
