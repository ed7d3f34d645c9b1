package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"potbuddy-backend/config"
	"potbuddy-backend/models"
	"potbuddy-backend/store"
	"potbuddy-backend/utils"
)

// Recalculator rebuilds a pot from workout and settlement history. It never
// reads the cached balance.
type Recalculator struct {
	ledger   store.Ledger
	penalty  int64
	activity ActivityRecorder
	log      *zap.SugaredLogger
}

func NewRecalculator(ledger store.Ledger, rules config.LedgerConfig, activity ActivityRecorder, log *zap.SugaredLogger) *Recalculator {
	return &Recalculator{ledger: ledger, penalty: rules.Penalty, activity: activity, log: log}
}

// Recalculate sets the pot to PENALTY times the misses of both members since
// the latest of: the pair's creation day, its last settled week, its last
// consented reset. On the day of a reset only misses recorded after it count.
func (r *Recalculator) Recalculate(ctx context.Context, pairID uuid.UUID) (int64, error) {
	balance, _, err := r.recalculate(ctx, pairID)
	return balance, err
}

// recalculate holds the pair row lock from the count to the write, so a
// workout recorded meanwhile lands its increment after the new balance.
func (r *Recalculator) recalculate(ctx context.Context, pairID uuid.UUID) (int64, *models.Pair, error) {
	var (
		before    *models.Pair
		balance   int64
		reference time.Time
	)
	err := r.ledger.Transaction(ctx, func(tx store.Ledger) error {
		pair, err := tx.LockPair(ctx, pairID)
		if err != nil {
			return err
		}
		before = pair

		reference = utils.DateOf(pair.CreatedAt)
		latest, err := tx.LatestSettlement(ctx, pairID)
		switch {
		case err == nil:
			reference = utils.LaterOf(reference, utils.DateOf(latest.WeekStartDate))
		case !errors.Is(err, models.ErrNotFound):
			return err
		}

		users := []uuid.UUID{pair.UserAID, pair.UserBID}
		var missed int64
		if pair.PotResetAt != nil && !utils.DateOf(*pair.PotResetAt).Before(reference) {
			resetDay := utils.DateOf(*pair.PotResetAt)
			reference = resetDay
			sameDay, err := tx.CountMissedRecordedAfter(ctx, users, resetDay, *pair.PotResetAt)
			if err != nil {
				return err
			}
			later, err := tx.CountMissedWorkouts(ctx, users, resetDay.AddDate(0, 0, 1))
			if err != nil {
				return err
			}
			missed = sameDay + later
		} else {
			if missed, err = tx.CountMissedWorkouts(ctx, users, reference); err != nil {
				return err
			}
		}

		balance = missed * r.penalty
		_, err = tx.SetPotBalance(ctx, pairID, balance)
		return err
	})
	if err != nil {
		return 0, nil, err
	}

	if balance != before.PotBalance {
		r.log.Infow("pot corrected",
			"pair_id", pairID,
			"cached", before.PotBalance,
			"balance", balance,
			"since", utils.FormatDate(reference),
		)
	}
	return balance, before, nil
}

// RecalculateForUser recalculates each of the user's pairs independently.
// Pairs that fail are left out of the results and reported in the error.
func (r *Recalculator) RecalculateForUser(ctx context.Context, userID uuid.UUID) ([]models.PotBalance, error) {
	pairs, err := r.ledger.GetPairsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]models.PotBalance, 0, len(pairs))
	var errs []error
	for _, p := range pairs {
		balance, before, err := r.recalculate(ctx, p.ID)
		if err != nil {
			r.log.Errorw("pot recalculation failed", "pair_id", p.ID, "error", err)
			errs = append(errs, fmt.Errorf("pair %s: %w", p.ID, err))
			continue
		}
		results = append(results, models.PotBalance{PairID: p.ID, Balance: balance})
		if before.PotBalance != balance {
			r.activity.Record(ctx, models.NewActivity(p.ID, userID, models.ActivityPotRecalculated, p.ID,
				fmt.Sprintf("Pot corrected from %d to %d", before.PotBalance, balance)))
		}
	}
	return results, errors.Join(errs...)
}
