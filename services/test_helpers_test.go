package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"potbuddy-backend/config"
	"potbuddy-backend/database"
	"potbuddy-backend/models"
	"potbuddy-backend/store"
)

// Thursday; the last completed week is Mon 2026-10-05 .. Sun 2026-10-11.
var testNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func createTestStore(t *testing.T) *store.GormStore {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return store.New(db)
}

func createTestUser(t *testing.T, s store.Store, email string) *models.User {
	t.Helper()
	u := models.NewUser(uuid.New(), email, "")
	user, err := s.UpsertUser(context.Background(), &u)
	require.NoError(t, err)
	return user
}

// createTestPair backdates the pair so history in the test weeks counts.
func createTestPair(t *testing.T, s store.Store, a, b uuid.UUID, created string) *models.Pair {
	t.Helper()
	p := models.NewPair(a, b)
	p.CreatedAt = day(created)
	require.NoError(t, s.CreatePair(context.Background(), &p))
	return &p
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testRules() config.LedgerConfig {
	return config.DefaultLedger()
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

type fakeNotifier struct {
	mu          sync.Mutex
	invitations []models.Invitation
	buddies     []uuid.UUID
	settlements []models.Settlement
}

func (f *fakeNotifier) InvitationCreated(_ context.Context, _ models.User, inv models.Invitation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invitations = append(f.invitations, inv)
}

func (f *fakeNotifier) BuddyAdded(_ context.Context, _, buddy models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buddies = append(f.buddies, buddy.ID)
}

func (f *fakeNotifier) SettlementCreated(_ context.Context, st models.Settlement, _, _ models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settlements = append(f.settlements, st)
}

func (f *fakeNotifier) settlementCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.settlements)
}

// faultyLedger fails pot operations on one pair and passes everything else
// through, including inside transactions.
type faultyLedger struct {
	store.Ledger
	pairID uuid.UUID
	err    error
}

func (l *faultyLedger) AtomicResetPot(ctx context.Context, pairID uuid.UUID) (int64, *models.Pair, error) {
	if pairID == l.pairID {
		return 0, nil, l.err
	}
	return l.Ledger.AtomicResetPot(ctx, pairID)
}

func (l *faultyLedger) LockPair(ctx context.Context, pairID uuid.UUID) (*models.Pair, error) {
	if pairID == l.pairID {
		return nil, l.err
	}
	return l.Ledger.LockPair(ctx, pairID)
}

func (l *faultyLedger) Transaction(ctx context.Context, fn func(store.Ledger) error) error {
	return l.Ledger.Transaction(ctx, func(tx store.Ledger) error {
		return fn(&faultyLedger{Ledger: tx, pairID: l.pairID, err: l.err})
	})
}

type testEnv struct {
	store        *store.GormStore
	notifier     *fakeNotifier
	activity     *ActivityService
	recorder     *Recorder
	evaluator    *Evaluator
	recalculator *Recalculator
	pairing      *Pairing
	consent      *Consent
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := createTestStore(t)
	log := testLogger()
	n := &fakeNotifier{}
	act := NewActivityService(s, log)

	rec := NewRecorder(s, testRules(), log)
	rec.Now = fixedNow
	ev := NewEvaluator(s, testRules(), n, act, log)
	ev.Now = fixedNow
	cons := NewConsent(s, act, log)
	cons.Now = fixedNow

	return &testEnv{
		store:        s,
		notifier:     n,
		activity:     act,
		recorder:     rec,
		evaluator:    ev,
		recalculator: NewRecalculator(s, testRules(), act, log),
		pairing:      NewPairing(s, n, act, log),
		consent:      cons,
	}
}

func (e *testEnv) record(t *testing.T, userID uuid.UUID, date string, status models.WorkoutStatus) *RecordResult {
	t.Helper()
	res, err := e.recorder.Record(context.Background(), userID, date, string(status))
	require.NoError(t, err)
	return res
}

func (e *testEnv) pot(t *testing.T, pairID uuid.UUID) int64 {
	t.Helper()
	p, err := e.store.GetPair(context.Background(), pairID)
	require.NoError(t, err)
	return p.PotBalance
}
