package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"potbuddy-backend/models"
)

func TestConsent_PauseAndResume(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")

	req, err := env.consent.Request(ctx, a.ID, pair.ID, "pause")
	require.NoError(t, err)

	_, err = env.consent.Respond(ctx, a.ID, req.ID, true)
	assert.ErrorIs(t, err, models.ErrForbidden, "requester cannot approve their own request")

	pending, err := env.consent.Pending(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	resolved, err := env.consent.Respond(ctx, b.ID, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.ConsentAccepted, resolved.Status)

	p, err := env.store.GetPair(ctx, pair.ID)
	require.NoError(t, err)
	assert.True(t, p.IsPaused)

	_, err = env.consent.Request(ctx, b.ID, pair.ID, "pause")
	assert.ErrorIs(t, err, models.ErrConflict)

	resume, err := env.consent.Request(ctx, b.ID, pair.ID, "resume")
	require.NoError(t, err)
	_, err = env.consent.Respond(ctx, a.ID, resume.ID, true)
	require.NoError(t, err)

	p, err = env.store.GetPair(ctx, pair.ID)
	require.NoError(t, err)
	assert.False(t, p.IsPaused)
}

func TestConsent_ResetPot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")
	env.record(t, a.ID, "2026-10-01", models.StatusMissed)
	env.record(t, b.ID, "2026-10-02", models.StatusMissed)

	req, err := env.consent.Request(ctx, b.ID, pair.ID, "reset_pot")
	require.NoError(t, err)

	denied, err := env.consent.Respond(ctx, a.ID, req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.ConsentDenied, denied.Status)
	assert.Equal(t, int64(40), env.pot(t, pair.ID))

	req, err = env.consent.Request(ctx, b.ID, pair.ID, "reset_pot")
	require.NoError(t, err)
	_, err = env.consent.Respond(ctx, a.ID, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.pot(t, pair.ID))

	// recalculation honours the agreed reset
	balance, err := env.recalculator.Recalculate(ctx, pair.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	_, err = env.consent.Respond(ctx, a.ID, req.ID, true)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestConsent_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	c := createTestUser(t, env.store, "c@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")

	_, err := env.consent.Request(ctx, a.ID, pair.ID, "divorce")
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = env.consent.Request(ctx, c.ID, pair.ID, "pause")
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = env.consent.Request(ctx, a.ID, pair.ID, "resume")
	assert.ErrorIs(t, err, models.ErrConflict)
}
