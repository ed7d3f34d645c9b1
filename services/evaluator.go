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

// Evaluator settles completed weeks. A pair-week is paid out at most once:
// the pot reset and the settlement insert share a transaction, and the
// unique (pair, week) index rejects every second attempt.
type Evaluator struct {
	ledger   store.Ledger
	rules    config.LedgerConfig
	notifier Notifier
	activity ActivityRecorder
	log      *zap.SugaredLogger

	Now func() time.Time
}

func NewEvaluator(ledger store.Ledger, rules config.LedgerConfig, notifier Notifier, activity ActivityRecorder, log *zap.SugaredLogger) *Evaluator {
	return &Evaluator{
		ledger:   ledger,
		rules:    rules,
		notifier: notifier,
		activity: activity,
		log:      log,
		Now:      time.Now,
	}
}

type EvaluationFailure struct {
	PairID    uuid.UUID
	WeekStart time.Time
	Err       error
}

type EvaluationResult struct {
	Settlements []models.Settlement
	Failures    []EvaluationFailure
}

// Evaluate settles the last EvaluateWeeks completed weeks of every pair the
// user belongs to, oldest week first. A failing pair-week is recorded in
// Failures and does not stop the others.
func (e *Evaluator) Evaluate(ctx context.Context, userID uuid.UUID) (*EvaluationResult, error) {
	pairs, err := e.ledger.GetPairsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &EvaluationResult{Settlements: []models.Settlement{}}
	weeks := utils.CompletedWeeks(e.Now(), e.rules.EvaluateWeeks)

	for _, pair := range pairs {
		if pair.IsPaused {
			continue
		}
		for _, week := range weeks {
			st, err := e.settleWeek(ctx, pair, week)
			if err != nil {
				e.log.Errorw("week evaluation failed",
					"pair_id", pair.ID,
					"week_start", utils.FormatDate(week),
					"error", err,
				)
				result.Failures = append(result.Failures, EvaluationFailure{PairID: pair.ID, WeekStart: week, Err: err})
				continue
			}
			if st != nil {
				result.Settlements = append(result.Settlements, *st)
				e.announce(ctx, *st)
			}
		}
	}
	return result, nil
}

// settleWeek returns the settlement it created, or nil when the week was
// already settled or both buddies ended it the same way.
func (e *Evaluator) settleWeek(ctx context.Context, pair models.Pair, weekStart time.Time) (*models.Settlement, error) {
	if _, err := e.ledger.GetSettlement(ctx, pair.ID, weekStart); err == nil {
		return nil, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	weekEnd := utils.WeekEnd(weekStart)
	workedA, err := e.ledger.CountWorkedWorkouts(ctx, pair.UserAID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	workedB, err := e.ledger.CountWorkedWorkouts(ctx, pair.UserBID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	metA := workedA >= e.rules.WeeklyQuota
	metB := workedB >= e.rules.WeeklyQuota
	if metA == metB {
		return nil, nil
	}

	winner, loser := pair.UserAID, pair.UserBID
	if metB {
		winner, loser = pair.UserBID, pair.UserAID
	}

	var created models.Settlement
	err = e.ledger.Transaction(ctx, func(tx store.Ledger) error {
		previous, _, err := tx.AtomicResetPot(ctx, pair.ID)
		if err != nil {
			return err
		}
		created = models.NewSettlement(pair.ID, weekStart, winner, loser, previous)
		return tx.CreateSettlement(ctx, &created)
	})
	if errors.Is(err, models.ErrConflict) {
		e.log.Debugw("week settled concurrently", "pair_id", pair.ID, "week_start", utils.FormatDate(weekStart))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.log.Infow("week settled",
		"pair_id", pair.ID,
		"week_start", utils.FormatDate(weekStart),
		"winner", winner,
		"loser", loser,
		"amount", created.Amount,
	)
	return &created, nil
}

func (e *Evaluator) announce(ctx context.Context, st models.Settlement) {
	winner, err := e.ledger.GetUser(ctx, st.WinnerUserID)
	if err != nil {
		e.log.Warnw("settlement winner lookup failed", "settlement_id", st.ID, "error", err)
		return
	}
	loser, err := e.ledger.GetUser(ctx, st.LoserUserID)
	if err != nil {
		e.log.Warnw("settlement loser lookup failed", "settlement_id", st.ID, "error", err)
		return
	}

	e.activity.Record(ctx, models.NewActivity(st.PairID, st.WinnerUserID, models.ActivitySettlement, st.ID,
		fmt.Sprintf("%s won %d from %s for the week of %s", winner.DisplayName(), st.Amount, loser.DisplayName(), utils.FormatDate(st.WeekStartDate))))
	e.notifier.SettlementCreated(ctx, st, *winner, *loser)
}
