// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package access_test

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
	"codeberg.org/oliverandrich/portfolio-gate/internal/repository"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/access"
	"codeberg.org/oliverandrich/portfolio-gate/internal/sse"
	"codeberg.org/oliverandrich/portfolio-gate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*access.Service, *repository.Repository, *testutil.Clock, *testutil.Recorder) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	clock := testutil.NewClock()
	rec := &testutil.Recorder{}
	cfg := &config.AccessConfig{SessionDays: 7, SweepInterval: time.Hour, DefaultTimezone: "Asia/Kolkata"}
	svc := access.NewService(repo, cfg, rec).WithClock(clock.Now)
	return svc, repo, clock, rec
}

func TestCreateRequest(t *testing.T) {
	t.Run("stores pending request with defaults", func(t *testing.T) {
		svc, repo, _, rec := newService(t)
		ctx := context.Background()

		req, err := svc.CreateRequest(ctx, access.CreateParams{
			VisitorName:  "Ann",
			VisitorEmail: "a@x.com",
			ProjectName:  "demo",
			OTPCode:      "123456",
		})
		require.NoError(t, err)
		assert.NotZero(t, req.ID)

		stored, err := repo.GetAccessRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsVerified)
		assert.Equal(t, models.StatusInactive, stored.StatusID)
		assert.Equal(t, "live", stored.ProjectType)
		assert.Equal(t, "", stored.RedirectURL)
		assert.Equal(t, "Asia/Kolkata", stored.ClientTimezone)
		assert.Equal(t, "2026-01-17 17:30:00 IST", stored.LocalTime)
		assert.Equal(t, []string{sse.EventAccessRequestCreated}, rec.Names())
	})

	t.Run("keeps client supplied values", func(t *testing.T) {
		svc, repo, _, _ := newService(t)
		ctx := context.Background()

		req, err := svc.CreateRequest(ctx, access.CreateParams{
			VisitorName:    "Ann",
			VisitorEmail:   "a@x.com",
			ProjectName:    "demo",
			ProjectType:    "github",
			RedirectURL:    "https://github.com/ann/demo",
			OTPCode:        "123456",
			LocalTime:      "2026-01-17 07:00:00 EST",
			ClientTimezone: "America/New_York",
		})
		require.NoError(t, err)

		stored, err := repo.GetAccessRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, "github", stored.ProjectType)
		assert.Equal(t, "https://github.com/ann/demo", stored.RedirectURL)
		assert.Equal(t, "2026-01-17 07:00:00 EST", stored.LocalTime)
		assert.Equal(t, "America/New_York", stored.ClientTimezone)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		svc, _, _, rec := newService(t)

		_, err := svc.CreateRequest(context.Background(), access.CreateParams{
			VisitorName:  "Ann",
			VisitorEmail: "a@x.com",
			ProjectName:  "demo",
		})
		assert.ErrorIs(t, err, access.ErrMissingFields)
		assert.Empty(t, rec.Events())
	})

	t.Run("duplicates accumulate", func(t *testing.T) {
		svc, _, _, _ := newService(t)
		ctx := context.Background()
		params := access.CreateParams{VisitorName: "Ann", VisitorEmail: "a@x.com", ProjectName: "demo", OTPCode: "111111"}

		first, err := svc.CreateRequest(ctx, params)
		require.NoError(t, err)
		second, err := svc.CreateRequest(ctx, params)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestVerify(t *testing.T) {
	t.Run("activates matching request for seven days", func(t *testing.T) {
		svc, _, clock, rec := newService(t)
		ctx := context.Background()
		_, err := svc.CreateRequest(ctx, access.CreateParams{VisitorName: "Ann", VisitorEmail: "a@x.com", ProjectName: "demo", OTPCode: "123456"})
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)
		req, err := svc.Verify(ctx, "a@x.com", "123456")
		require.NoError(t, err)

		assert.True(t, req.IsVerified)
		assert.Equal(t, models.StatusActive, req.StatusID)
		require.NotNil(t, req.ExpiresAt)
		require.NotNil(t, req.VerifiedAt)
		assert.True(t, req.ExpiresAt.Equal(req.VerifiedAt.Add(7*24*time.Hour)))
		assert.True(t, req.VerifiedAt.Equal(clock.Now()))
		assert.Contains(t, rec.Names(), sse.EventAccessRequestVerified)
	})

	t.Run("non-matching pair leaves rows unchanged", func(t *testing.T) {
		svc, repo, _, _ := newService(t)
		ctx := context.Background()
		pending := testutil.NewTestAccessRequest(t, repo, "a@x.com", "demo", "123456")

		_, err := svc.Verify(ctx, "a@x.com", "000000")
		assert.ErrorIs(t, err, access.ErrNoMatch)

		_, err = svc.Verify(ctx, "b@x.com", "123456")
		assert.ErrorIs(t, err, access.ErrNoMatch)

		stored, err := repo.GetAccessRequest(ctx, pending.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsVerified)
		assert.Equal(t, models.StatusInactive, stored.StatusID)
		assert.Nil(t, stored.ExpiresAt)
	})

	t.Run("already verified request does not match again", func(t *testing.T) {
		svc, repo, _, _ := newService(t)
		ctx := context.Background()
		testutil.NewTestAccessRequest(t, repo, "a@x.com", "demo", "123456")

		_, err := svc.Verify(ctx, "a@x.com", "123456")
		require.NoError(t, err)

		_, err = svc.Verify(ctx, "a@x.com", "123456")
		assert.ErrorIs(t, err, access.ErrNoMatch)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		svc, _, _, _ := newService(t)

		_, err := svc.Verify(context.Background(), "", "123456")
		assert.ErrorIs(t, err, access.ErrMissingFields)
	})
}

func TestCheckSession(t *testing.T) {
	t.Run("no session without verified row", func(t *testing.T) {
		svc, repo, _, _ := newService(t)
		testutil.NewTestAccessRequest(t, repo, "a@x.com", "demo", "123456")

		check := svc.CheckSession(context.Background(), "a@x.com", "demo")

		assert.False(t, check.Active)
	})

	t.Run("no session for empty email", func(t *testing.T) {
		svc, _, _, _ := newService(t)

		assert.False(t, svc.CheckSession(context.Background(), "", "demo").Active)
	})

	t.Run("finds session by project substring and touches it", func(t *testing.T) {
		svc, repo, clock, _ := newService(t)
		ctx := context.Background()
		session := testutil.NewTestSession(t, repo, "a@x.com", "portfolio-demo", testutil.Now.Add(time.Hour))

		clock.Advance(10 * time.Minute)
		check := svc.CheckSession(ctx, "a@x.com", "demo")

		assert.True(t, check.Active)
		assert.Equal(t, "https://example.com/portfolio-demo", check.RedirectURL)
		assert.Equal(t, "Visitor", check.VisitorName)

		stored, err := repo.GetAccessRequest(ctx, session.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastAccessAt)
		assert.True(t, stored.LastAccessAt.Equal(clock.Now()))
	})

	t.Run("expired session is not active", func(t *testing.T) {
		svc, repo, clock, _ := newService(t)
		testutil.NewTestSession(t, repo, "a@x.com", "demo", testutil.Now.Add(time.Hour))

		clock.Advance(time.Hour)

		assert.False(t, svc.CheckSession(context.Background(), "a@x.com", "demo").Active)
	})

	t.Run("store errors downgrade to no session", func(t *testing.T) {
		db, repo := testutil.NewTestDB(t)
		cfg := &config.AccessConfig{SessionDays: 7}
		svc := access.NewService(repo, cfg, nil)
		testutil.NewTestSession(t, repo, "a@x.com", "demo", testutil.Now.Add(24*time.Hour))
		require.NoError(t, db.Close())

		assert.False(t, svc.CheckSession(context.Background(), "a@x.com", "demo").Active)
	})
}

func TestRevokeAndResetAll(t *testing.T) {
	t.Run("revoke only touches one email", func(t *testing.T) {
		svc, repo, _, _ := newService(t)
		ctx := context.Background()
		ann1 := testutil.NewTestSession(t, repo, "a@x.com", "demo", testutil.Now.Add(time.Hour))
		ann2 := testutil.NewTestSession(t, repo, "a@x.com", "other", testutil.Now.Add(time.Hour))
		bob := testutil.NewTestSession(t, repo, "b@x.com", "demo", testutil.Now.Add(time.Hour))

		n, err := svc.Revoke(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		for _, id := range []int64{ann1.ID, ann2.ID} {
			stored, err := repo.GetAccessRequest(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, models.StatusInactive, stored.StatusID)
		}
		stored, err := repo.GetAccessRequest(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, stored.StatusID)
	})

	t.Run("revoke requires email", func(t *testing.T) {
		svc, _, _, _ := newService(t)

		_, err := svc.Revoke(context.Background(), "")
		assert.ErrorIs(t, err, access.ErrMissingEmail)
	})

	t.Run("reset all deactivates every session", func(t *testing.T) {
		svc, repo, _, _ := newService(t)
		ctx := context.Background()
		testutil.NewTestSession(t, repo, "a@x.com", "demo", testutil.Now.Add(time.Hour))
		testutil.NewTestSession(t, repo, "b@x.com", "demo", testutil.Now.Add(time.Hour))

		n, err := svc.ResetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), stats.ActiveSessions)
		assert.Equal(t, int64(2), stats.InactiveSessions)
		assert.Equal(t, int64(2), stats.VerifiedRequests)
	})
}

func TestSweep(t *testing.T) {
	svc, repo, clock, rec := newService(t)
	ctx := context.Background()
	expired := testutil.NewTestSession(t, repo, "a@x.com", "demo", testutil.Now.Add(-time.Minute))
	boundary := testutil.NewTestSession(t, repo, "b@x.com", "demo", testutil.Now.Add(time.Hour))
	live := testutil.NewTestSession(t, repo, "c@x.com", "demo", testutil.Now.Add(2*time.Hour))

	clock.Advance(time.Hour)
	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for id, want := range map[int64]models.Status{
		expired.ID:  models.StatusInactive,
		boundary.ID: models.StatusInactive,
		live.ID:     models.StatusActive,
	} {
		stored, err := repo.GetAccessRequest(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, stored.StatusID, "request %d", id)
	}
	assert.Contains(t, rec.Names(), sse.EventSessionsSwept)

	n, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestList(t *testing.T) {
	svc, repo, _, _ := newService(t)
	ctx := context.Background()
	testutil.NewTestAccessRequest(t, repo, "a@x.com", "demo", "111111")
	testutil.NewTestSession(t, repo, "b@x.com", "demo", testutil.Now.Add(time.Hour))

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byEmail := map[string]access.Listing{}
	for _, r := range rows {
		byEmail[r.VisitorEmail] = r
	}
	assert.Equal(t, "INACTIVE", byEmail["a@x.com"].Status)
	assert.Equal(t, "ACTIVE", byEmail["b@x.com"].Status)
}

func TestEndToEnd_AnnGetsAccess(t *testing.T) {
	svc, repo, clock, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, access.CreateParams{
		VisitorName:  "Ann",
		VisitorEmail: "a@x.com",
		ProjectName:  "demo",
		RedirectURL:  "https://ann.example/demo",
		OTPCode:      "123456",
	})
	require.NoError(t, err)

	stored, err := repo.GetAccessRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, stored.StatusID)
	assert.False(t, stored.IsVerified)
	assert.False(t, svc.CheckSession(ctx, "a@x.com", "demo").Active)

	verified, err := svc.Verify(ctx, "a@x.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, verified.StatusID)
	assert.WithinDuration(t, clock.Now().Add(7*24*time.Hour), *verified.ExpiresAt, time.Second)

	check := svc.CheckSession(ctx, "a@x.com", "demo")
	assert.True(t, check.Active)
	assert.Equal(t, "https://ann.example/demo", check.RedirectURL)
	assert.Equal(t, "Ann", check.VisitorName)
}

func TestEmailWhitespaceIgnored(t *testing.T) {
	svc, repo, _, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, access.CreateParams{
		VisitorName:  "Ann",
		VisitorEmail: " a@x.com ",
		ProjectName:  "demo",
		OTPCode:      "123456",
	})
	require.NoError(t, err)

	stored, err := repo.GetAccessRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", stored.VisitorEmail)

	_, err = svc.Verify(ctx, "a@x.com\t", "123456")
	require.NoError(t, err)
	assert.True(t, svc.CheckSession(ctx, " a@x.com", "demo").Active)

	n, err := svc.Revoke(ctx, "a@x.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
