package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"potbuddy-backend/models"
)

// seedWeek gives a five worked days and b two worked and three missed in
// the week of 2026-10-05, leaving 60 in their pot.
func seedWeek(t *testing.T, env *testEnv, a, b *models.User) {
	t.Helper()
	for _, d := range []string{"2026-10-05", "2026-10-06", "2026-10-07", "2026-10-08", "2026-10-09"} {
		env.record(t, a.ID, d, models.StatusWorked)
	}
	env.record(t, b.ID, "2026-10-05", models.StatusWorked)
	env.record(t, b.ID, "2026-10-06", models.StatusWorked)
	for _, d := range []string{"2026-10-07", "2026-10-08", "2026-10-09"} {
		env.record(t, b.ID, d, models.StatusMissed)
	}
}

func TestEvaluate_SettlesAsymmetricWeek(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")
	seedWeek(t, env, a, b)
	require.Equal(t, int64(60), env.pot(t, pair.ID))

	res, err := env.evaluator.Evaluate(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	require.Len(t, res.Settlements, 1)

	st := res.Settlements[0]
	assert.Equal(t, a.ID, st.WinnerUserID)
	assert.Equal(t, b.ID, st.LoserUserID)
	assert.Equal(t, int64(60), st.Amount)
	assert.Equal(t, "2026-10-05", st.WeekStartDate.Format("2006-01-02"))
	assert.Equal(t, int64(0), env.pot(t, pair.ID))
	assert.Equal(t, 1, env.notifier.settlementCount())

	feed, err := env.activity.Feed(ctx, b.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, models.ActivitySettlement, feed[0].Type)
}

func TestEvaluate_FailingPairDoesNotBlockOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	c := createTestUser(t, env.store, "c@example.com")
	ab := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")
	ac := createTestPair(t, env.store, a.ID, c.ID, "2026-09-01")
	seedWeek(t, env, a, b)
	env.record(t, c.ID, "2026-10-07", models.StatusMissed)
	env.record(t, c.ID, "2026-10-08", models.StatusMissed)
	require.Equal(t, int64(60), env.pot(t, ab.ID))
	require.Equal(t, int64(40), env.pot(t, ac.ID))

	errDisk := errors.New("disk full")
	ev := NewEvaluator(&faultyLedger{Ledger: env.store, pairID: ab.ID, err: errDisk}, testRules(), env.notifier, env.activity, testLogger())
	ev.Now = fixedNow

	res, err := ev.Evaluate(ctx, a.ID)
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, ab.ID, res.Failures[0].PairID)
	assert.Equal(t, "2026-10-05", res.Failures[0].WeekStart.Format("2006-01-02"))
	assert.ErrorIs(t, res.Failures[0].Err, errDisk)

	require.Len(t, res.Settlements, 1)
	assert.Equal(t, ac.ID, res.Settlements[0].PairID)
	assert.Equal(t, a.ID, res.Settlements[0].WinnerUserID)
	assert.Equal(t, int64(40), res.Settlements[0].Amount)
	assert.Equal(t, int64(0), env.pot(t, ac.ID))

	assert.Equal(t, int64(60), env.pot(t, ab.ID))
	_, err = env.store.GetSettlement(ctx, ab.ID, day("2026-10-05"))
	assert.ErrorIs(t, err, models.ErrNotFound)

	// once the fault clears the week settles normally
	retry, err := env.evaluator.Evaluate(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, retry.Failures)
	require.Len(t, retry.Settlements, 1)
	assert.Equal(t, ab.ID, retry.Settlements[0].PairID)
	assert.Equal(t, int64(60), retry.Settlements[0].Amount)
}

func TestEvaluate_ExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")
	seedWeek(t, env, a, b)

	first, err := env.evaluator.Evaluate(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, first.Settlements, 1)

	// a miss after settlement stays in the pot
	env.record(t, b.ID, "2026-10-13", models.StatusMissed)

	second, err := env.evaluator.Evaluate(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, second.Settlements)
	assert.Equal(t, int64(20), env.pot(t, pair.ID))

	settlements, err := env.store.ListSettlements(ctx, pair.ID)
	require.NoError(t, err)
	assert.Len(t, settlements, 1)
}

func TestEvaluate_ConcurrentCallsSettleOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")
	seedWeek(t, env, a, b)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		user := a.ID
		if i%2 == 1 {
			user = b.ID
		}
		go func() {
			defer wg.Done()
			res, err := env.evaluator.Evaluate(ctx, user)
			assert.NoError(t, err)
			mu.Lock()
			total += len(res.Settlements)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, total)
	settlements, err := env.store.ListSettlements(ctx, pair.ID)
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, int64(60), settlements[0].Amount)
	assert.Equal(t, int64(0), env.pot(t, pair.ID))
}

func TestEvaluate_SymmetricWeekCarriesForward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")

	// both miss the quota
	env.record(t, a.ID, "2026-10-05", models.StatusMissed)
	env.record(t, b.ID, "2026-10-06", models.StatusMissed)
	env.record(t, b.ID, "2026-10-07", models.StatusWorked)

	res, err := env.evaluator.Evaluate(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Settlements)
	assert.Equal(t, int64(40), env.pot(t, pair.ID))

	// both meet it
	for _, d := range []string{"2026-09-28", "2026-09-29", "2026-09-30", "2026-10-01"} {
		env.record(t, a.ID, d, models.StatusWorked)
		env.record(t, b.ID, d, models.StatusWorked)
	}
	res, err = env.evaluator.Evaluate(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Settlements)
	assert.Equal(t, int64(40), env.pot(t, pair.ID))
}

func TestEvaluate_SkipsPausedPairs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")
	seedWeek(t, env, a, b)
	require.NoError(t, env.store.SetPaused(ctx, pair.ID, true))

	res, err := env.evaluator.Evaluate(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Settlements)
	assert.Equal(t, int64(60), env.pot(t, pair.ID))
}

func TestEvaluate_IgnoresCurrentWeek(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")

	for _, d := range []string{"2026-10-12", "2026-10-13", "2026-10-14", "2026-10-15"} {
		env.record(t, a.ID, d, models.StatusWorked)
	}
	res, err := env.evaluator.Evaluate(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Settlements)
}

func TestEvaluate_EvaluatesEveryPairOfTheUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	c := createTestUser(t, env.store, "c@example.com")
	createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")
	createTestPair(t, env.store, a.ID, c.ID, "2026-09-01")
	for _, d := range []string{"2026-10-05", "2026-10-06", "2026-10-07", "2026-10-08"} {
		env.record(t, a.ID, d, models.StatusWorked)
	}

	res, err := env.evaluator.Evaluate(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, res.Settlements, 2)
	for _, st := range res.Settlements {
		assert.Equal(t, a.ID, st.WinnerUserID)
		assert.Equal(t, int64(0), st.Amount)
	}
}

func TestEvaluate_WeeksBeforePairCreationStillSettle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	seedWeek(t, env, a, b)

	// paired after the seeded weeks; only this week's miss is in the pot
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-10-13")
	env.record(t, b.ID, "2026-10-13", models.StatusMissed)
	require.Equal(t, int64(20), env.pot(t, pair.ID))

	res, err := env.evaluator.Evaluate(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, res.Settlements, 1)
	assert.Equal(t, "2026-10-05", res.Settlements[0].WeekStartDate.Format("2006-01-02"))
	assert.Equal(t, int64(20), res.Settlements[0].Amount)
	assert.Equal(t, int64(0), env.pot(t, pair.ID))
}
