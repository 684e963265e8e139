// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package access

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper runs Service.Sweep once on Start and then on every interval.
type Sweeper struct {
	svc      *Service
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a sweeper. A non-positive interval defaults to one hour.
func NewSweeper(svc *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{svc: svc, interval: interval}
}

// Start runs the first sweep synchronously and then schedules the rest.
// Calling Start on a running sweeper is a no-op.
func (w *Sweeper) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	w.runOnce(ctx)

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(ctx)
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *Sweeper) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()
}

func (w *Sweeper) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Sweeper) runOnce(ctx context.Context) {
	if _, err := w.svc.Sweep(ctx); err != nil {
		slog.Error("session_sweep_failed", "error", err)
	}
}
