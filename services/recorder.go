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

// Recorder stores daily workout outcomes and keeps every shared pot of the
// user in step with them.
type Recorder struct {
	ledger  store.Ledger
	penalty int64
	log     *zap.SugaredLogger

	Now func() time.Time
}

func NewRecorder(ledger store.Ledger, rules config.LedgerConfig, log *zap.SugaredLogger) *Recorder {
	return &Recorder{
		ledger:  ledger,
		penalty: rules.Penalty,
		log:     log,
		Now:     time.Now,
	}
}

type RecordResult struct {
	Workout  models.Workout
	Previous *models.WorkoutStatus
	Delta    int64
	Pairs    []models.Pair
}

// PotDelta is the change to each pot when a day's status moves from previous
// (nil when nothing was recorded) to next.
func PotDelta(previous *models.WorkoutStatus, next models.WorkoutStatus, penalty int64) int64 {
	switch {
	case previous == nil && next == models.StatusMissed:
		return penalty
	case previous == nil:
		return 0
	case *previous == next:
		return 0
	case next == models.StatusMissed:
		return penalty
	default:
		return -penalty
	}
}

// Record upserts the user's status for date (YYYY-MM-DD, empty for today)
// and applies the resulting delta to all of the user's pairs. Concurrent
// calls for the same user are serialised on the user row.
func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, date, status string) (*RecordResult, error) {
	next := models.WorkoutStatus(status)
	if !next.Valid() {
		return nil, fmt.Errorf("%w: status must be %q or %q", models.ErrValidation, models.StatusWorked, models.StatusMissed)
	}
	day := utils.DateOf(r.Now())
	if date != "" {
		var err error
		if day, err = utils.ParseDate(date); err != nil {
			return nil, err
		}
	}

	var result RecordResult
	err := r.ledger.Transaction(ctx, func(tx store.Ledger) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}

		var previous *models.WorkoutStatus
		existing, err := tx.GetWorkout(ctx, userID, day)
		switch {
		case err == nil:
			prev := existing.Status
			previous = &prev
		case !errors.Is(err, models.ErrNotFound):
			return err
		}

		workout, err := tx.UpsertWorkout(ctx, userID, day, next)
		if err != nil {
			return err
		}
		delta := PotDelta(previous, next, r.penalty)

		pairs, err := tx.GetPairsForUser(ctx, userID)
		if err != nil {
			return err
		}
		if delta != 0 {
			for i := range pairs {
				updated, err := tx.IncrementPotBalance(ctx, pairs[i].ID, delta)
				if err != nil {
					return err
				}
				pairs[i] = *updated
			}
		}

		result = RecordResult{Workout: *workout, Previous: previous, Delta: delta, Pairs: pairs}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Infow("workout recorded",
		"user_id", userID,
		"date", utils.FormatDate(day),
		"status", next,
		"delta", result.Delta,
		"pairs", len(result.Pairs),
	)
	return &result, nil
}

// Today returns the user's workout for the current UTC day, or nil.
func (r *Recorder) Today(ctx context.Context, userID uuid.UUID) (*models.Workout, error) {
	w, err := r.ledger.GetWorkout(ctx, userID, utils.DateOf(r.Now()))
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return w, err
}

const maxHistoryWeeks = 52

// History groups the user's workouts of the last `weeks` weeks, ending with
// the current one, oldest first.
func (r *Recorder) History(ctx context.Context, userID uuid.UUID, weeks int) ([]models.WeekSummary, error) {
	if weeks <= 0 {
		weeks = 4
	}
	if weeks > maxHistoryWeeks {
		weeks = maxHistoryWeeks
	}
	current := utils.WeekStart(r.Now())
	from := current.AddDate(0, 0, -7*(weeks-1))
	workouts, err := r.ledger.ListWorkouts(ctx, userID, from, utils.WeekEnd(current))
	if err != nil {
		return nil, err
	}

	summaries := make([]models.WeekSummary, weeks)
	for i := range summaries {
		summaries[i] = models.WeekSummary{
			WeekStartDate: utils.FormatDate(from.AddDate(0, 0, 7*i)),
			Workouts:      []models.Workout{},
		}
	}
	for _, w := range workouts {
		i := int(utils.WeekStart(w.Date).Sub(from).Hours() / (24 * 7))
		if i < 0 || i >= weeks {
			continue
		}
		summaries[i].Workouts = append(summaries[i].Workouts, w)
		if w.Status == models.StatusWorked {
			summaries[i].WorkoutCount++
		}
	}
	return summaries, nil
}
