package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"potbuddy-backend/models"
	"potbuddy-backend/utils"
)

func TestRecalculate_RepairsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")

	env.record(t, a.ID, "2026-09-10", models.StatusMissed)
	env.record(t, b.ID, "2026-09-11", models.StatusMissed)
	env.record(t, b.ID, "2026-09-12", models.StatusWorked)
	_, err := env.store.SetPotBalance(ctx, pair.ID, 500)
	require.NoError(t, err)

	balance, err := env.recalculator.Recalculate(ctx, pair.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)
	assert.Equal(t, int64(40), env.pot(t, pair.ID))

	again, err := env.recalculator.Recalculate(ctx, pair.ID)
	require.NoError(t, err)
	assert.Equal(t, balance, again)
}

func TestRecalculate_StartsAtLatestSettlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")

	env.record(t, a.ID, "2026-09-15", models.StatusMissed)
	env.record(t, b.ID, "2026-09-29", models.StatusMissed)
	env.record(t, b.ID, "2026-10-13", models.StatusMissed)

	st := models.NewSettlement(pair.ID, day("2026-09-28"), a.ID, b.ID, 40)
	require.NoError(t, env.store.CreateSettlement(ctx, &st))

	balance, err := env.recalculator.Recalculate(ctx, pair.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)
}

func TestRecalculate_LaterPairIgnoresEarlierMisses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	c := createTestUser(t, env.store, "c@example.com")
	first := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")

	env.record(t, a.ID, "2026-09-20", models.StatusMissed)
	env.record(t, a.ID, "2026-09-21", models.StatusMissed)

	second := createTestPair(t, env.store, a.ID, c.ID, "2026-10-01")
	env.record(t, a.ID, "2026-10-02", models.StatusMissed)

	results, err := env.recalculator.RecalculateForUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	got := map[string]int64{}
	for _, r := range results {
		got[r.PairID.String()] = r.Balance
	}
	assert.Equal(t, int64(60), got[first.ID.String()])
	assert.Equal(t, int64(20), got[second.ID.String()])
}

func TestRecalculate_StartsAtConsentedReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")

	env.record(t, a.ID, "2026-09-10", models.StatusMissed)
	require.NoError(t, env.store.MarkPotReset(ctx, pair.ID, day("2026-09-20")))
	env.record(t, b.ID, "2026-09-22", models.StatusMissed)

	balance, err := env.recalculator.Recalculate(ctx, pair.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)
}

func TestRecalculate_SameDayAsReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")
	today := utils.DateOf(time.Now())

	_, err := env.store.UpsertWorkout(ctx, a.ID, today, models.StatusMissed)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, env.store.MarkPotReset(ctx, pair.ID, time.Now()))
	time.Sleep(5 * time.Millisecond)

	_, err = env.store.UpsertWorkout(ctx, b.ID, today, models.StatusMissed)
	require.NoError(t, err)
	// resubmitting the same status is not a new miss
	_, err = env.store.UpsertWorkout(ctx, a.ID, today, models.StatusMissed)
	require.NoError(t, err)

	balance, err := env.recalculator.Recalculate(ctx, pair.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)
}

func TestRecalculate_ConcurrentRecordsAreNotLost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	pair := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")

	const days = 20
	var wg sync.WaitGroup
	for i := 0; i < days; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			date := day("2026-09-02").AddDate(0, 0, i).Format("2006-01-02")
			_, err := env.recorder.Record(ctx, a.ID, date, string(models.StatusMissed))
			assert.NoError(t, err)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < days; i++ {
			_, err := env.recalculator.Recalculate(ctx, pair.ID)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	assert.Equal(t, int64(days*20), env.pot(t, pair.ID))
}

func TestRecalculateForUser_IsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := createTestUser(t, env.store, "a@example.com")
	b := createTestUser(t, env.store, "b@example.com")
	c := createTestUser(t, env.store, "c@example.com")
	ab := createTestPair(t, env.store, a.ID, b.ID, "2026-09-01")
	ac := createTestPair(t, env.store, a.ID, c.ID, "2026-09-01")
	env.record(t, a.ID, "2026-09-10", models.StatusMissed)
	_, err := env.store.SetPotBalance(ctx, ab.ID, 999)
	require.NoError(t, err)
	_, err = env.store.SetPotBalance(ctx, ac.ID, 999)
	require.NoError(t, err)

	errDisk := errors.New("disk full")
	recalc := NewRecalculator(&faultyLedger{Ledger: env.store, pairID: ab.ID, err: errDisk}, testRules(), env.activity, testLogger())

	results, err := recalc.RecalculateForUser(ctx, a.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)
	assert.Contains(t, err.Error(), ab.ID.String())

	require.Len(t, results, 1)
	assert.Equal(t, ac.ID, results[0].PairID)
	assert.Equal(t, int64(20), results[0].Balance)
	assert.Equal(t, int64(20), env.pot(t, ac.ID))
	assert.Equal(t, int64(999), env.pot(t, ab.ID))
}

func TestRecalculate_UnknownPair(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.recalculator.Recalculate(context.Background(), createTestUser(t, env.store, "a@example.com").ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
