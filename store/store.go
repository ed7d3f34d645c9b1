// Package store is the ledger's persistence layer. GormStore runs on Postgres
// in production and SQLite in development and tests; correctness relies on
// its atomic statements and unique indexes, not on in-process locking.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"potbuddy-backend/models"
)

// Ledger is the set of storage operations the settlement engine needs.
type Ledger interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// LockUser loads the user and holds a row lock until the surrounding
	// transaction ends.
	LockUser(ctx context.Context, userID uuid.UUID) (*models.User, error)

	GetWorkout(ctx context.Context, userID uuid.UUID, date time.Time) (*models.Workout, error)
	UpsertWorkout(ctx context.Context, userID uuid.UUID, date time.Time, status models.WorkoutStatus) (*models.Workout, error)
	ListWorkouts(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Workout, error)
	CountWorkedWorkouts(ctx context.Context, userID uuid.UUID, weekStart, weekEnd time.Time) (int64, error)
	CountMissedWorkouts(ctx context.Context, userIDs []uuid.UUID, since time.Time) (int64, error)
	// CountMissedRecordedAfter counts misses dated day whose status was last
	// changed after the given instant.
	CountMissedRecordedAfter(ctx context.Context, userIDs []uuid.UUID, day, after time.Time) (int64, error)

	GetPair(ctx context.Context, pairID uuid.UUID) (*models.Pair, error)
	// LockPair loads the pair and holds a row lock until the surrounding
	// transaction ends. Pot increments on the pair wait for it.
	LockPair(ctx context.Context, pairID uuid.UUID) (*models.Pair, error)
	GetPairsForUser(ctx context.Context, userID uuid.UUID) ([]models.Pair, error)
	IncrementPotBalance(ctx context.Context, pairID uuid.UUID, delta int64) (*models.Pair, error)
	AtomicResetPot(ctx context.Context, pairID uuid.UUID) (int64, *models.Pair, error)
	SetPotBalance(ctx context.Context, pairID uuid.UUID, balance int64) (*models.Pair, error)

	GetSettlement(ctx context.Context, pairID uuid.UUID, weekStart time.Time) (*models.Settlement, error)
	LatestSettlement(ctx context.Context, pairID uuid.UUID) (*models.Settlement, error)
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// Transaction runs fn against a Ledger bound to one database
	// transaction. Returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(Ledger) error) error
}

// Store is the full persistence surface: the ledger plus the CRUD behind
// pairing, invitations, consent requests and the activity feed.
type Store interface {
	Ledger

	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
	UpdateFCMToken(ctx context.Context, userID uuid.UUID, token string) error

	CreatePair(ctx context.Context, pair *models.Pair) error
	GetPairByUsers(ctx context.Context, a, b uuid.UUID) (*models.Pair, error)
	DeletePair(ctx context.Context, pairID uuid.UUID) error
	ListSettlements(ctx context.Context, pairID uuid.UUID) ([]models.Settlement, error)
	SetPaused(ctx context.Context, pairID uuid.UUID, paused bool) error
	MarkPotReset(ctx context.Context, pairID uuid.UUID, at time.Time) error

	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitation(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	PendingInvitationsByInviter(ctx context.Context, inviterID uuid.UUID) ([]models.Invitation, error)
	PendingInvitationsForEmail(ctx context.Context, email string) ([]models.Invitation, error)
	ResolveInvitation(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error
	DeleteInvitation(ctx context.Context, id uuid.UUID) error

	CreateConsentRequest(ctx context.Context, req *models.ConsentRequest) error
	GetConsentRequest(ctx context.Context, id uuid.UUID) (*models.ConsentRequest, error)
	PendingConsentRequests(ctx context.Context, pairIDs []uuid.UUID) ([]models.ConsentRequest, error)
	ResolveConsentRequest(ctx context.Context, id uuid.UUID, status models.ConsentStatus) error

	CreateActivity(ctx context.Context, a *models.Activity) error
	ListActivity(ctx context.Context, pairIDs []uuid.UUID, offset, limit int) ([]models.Activity, error)

	// Within is Transaction for the full Store.
	Within(ctx context.Context, fn func(Store) error) error
}

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB returns the underlying handle. Prefer GormStore methods.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Ledger) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
	return translate(err, "transaction")
}

func (s *GormStore) Within(ctx context.Context, fn func(Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
	return translate(err, "transaction")
}

// translate maps driver errors onto the models error taxonomy. Errors that
// are already classified pass through untouched.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrStorageUnavailable):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, models.ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %w", op, models.ErrStorageUnavailable, err)
	}
}
