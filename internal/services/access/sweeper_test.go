// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package access_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/access"
	"codeberg.org/oliverandrich/portfolio-gate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_FirstSweepRunsOnStart(t *testing.T) {
	svc, repo, _, _ := newService(t)
	ctx := context.Background()
	expired := testutil.NewTestSession(t, repo, "a@x.com", "demo", testutil.Now)

	w := access.NewSweeper(svc, time.Hour)
	w.Start(ctx)
	defer w.Stop()

	stored, err := repo.GetAccessRequest(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, stored.StatusID)
}

func TestSweeper_RunsOnInterval(t *testing.T) {
	svc, repo, clock, _ := newService(t)
	ctx := context.Background()
	session := testutil.NewTestSession(t, repo, "a@x.com", "demo", testutil.Now.Add(time.Hour))

	w := access.NewSweeper(svc, 10*time.Millisecond)
	w.Start(ctx)
	defer w.Stop()

	clock.Advance(2 * time.Hour)

	assert.Eventually(t, func() bool {
		stored, err := repo.GetAccessRequest(ctx, session.ID)
		return err == nil && stored.StatusID == models.StatusInactive
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweeper_StopIsIdempotent(t *testing.T) {
	svc, _, _, _ := newService(t)

	w := access.NewSweeper(svc, time.Hour)
	w.Stop()
	w.Start(context.Background())
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}
