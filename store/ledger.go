package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"potbuddy-backend/models"
)

func (s *GormStore) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

func (s *GormStore) LockUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, translate(err, "lock user")
	}
	return &user, nil
}

func (s *GormStore) GetWorkout(ctx context.Context, userID uuid.UUID, date time.Time) (*models.Workout, error) {
	var w models.Workout
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&w).Error
	if err != nil {
		return nil, translate(err, "get workout")
	}
	return &w, nil
}

// UpsertWorkout inserts the (user, date) row or overwrites its status.
// updated_at only moves when the status actually changes.
func (s *GormStore) UpsertWorkout(ctx context.Context, userID uuid.UUID, date time.Time, status models.WorkoutStatus) (*models.Workout, error) {
	w := models.NewWorkout(userID, date, status)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("CASE WHEN workouts.status = excluded.status THEN workouts.updated_at ELSE excluded.updated_at END")},
				{Column: clause.Column{Name: "status"}, Value: gorm.Expr("excluded.status")},
			},
		}).
		Create(&w).Error
	if err != nil {
		return nil, translate(err, "upsert workout")
	}
	return s.GetWorkout(ctx, userID, date)
}

func (s *GormStore) CountWorkedWorkouts(ctx context.Context, userID uuid.UUID, weekStart, weekEnd time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Workout{}).
		Where("user_id = ? AND status = ? AND date >= ? AND date <= ?", userID, models.StatusWorked, weekStart, weekEnd).
		Count(&count).Error
	return count, translate(err, "count worked workouts")
}

func (s *GormStore) CountMissedWorkouts(ctx context.Context, userIDs []uuid.UUID, since time.Time) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Workout{}).
		Where("user_id IN ? AND status = ? AND date >= ?", userIDs, models.StatusMissed, since).
		Count(&count).Error
	return count, translate(err, "count missed workouts")
}

func (s *GormStore) CountMissedRecordedAfter(ctx context.Context, userIDs []uuid.UUID, day, after time.Time) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Workout{}).
		Where("user_id IN ? AND status = ? AND date = ? AND updated_at > ?", userIDs, models.StatusMissed, day, after.UTC()).
		Count(&count).Error
	return count, translate(err, "count missed workouts recorded after")
}

func (s *GormStore) GetPair(ctx context.Context, pairID uuid.UUID) (*models.Pair, error) {
	var pair models.Pair
	if err := s.db.WithContext(ctx).First(&pair, "id = ?", pairID).Error; err != nil {
		return nil, translate(err, "get pair")
	}
	return &pair, nil
}

func (s *GormStore) LockPair(ctx context.Context, pairID uuid.UUID) (*models.Pair, error) {
	var pair models.Pair
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&pair, "id = ?", pairID).Error
	if err != nil {
		return nil, translate(err, "lock pair")
	}
	return &pair, nil
}

func (s *GormStore) GetPairsForUser(ctx context.Context, userID uuid.UUID) ([]models.Pair, error) {
	var pairs []models.Pair
	err := s.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&pairs).Error
	if err != nil {
		return nil, translate(err, "get pairs for user")
	}
	return pairs, nil
}

// IncrementPotBalance adds delta with a single additive UPDATE so concurrent
// increments on the same pair never overwrite each other.
func (s *GormStore) IncrementPotBalance(ctx context.Context, pairID uuid.UUID, delta int64) (*models.Pair, error) {
	var pair models.Pair
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Pair{}).
			Where("id = ?", pairID).
			UpdateColumns(map[string]interface{}{
				"pot_balance": gorm.Expr("pot_balance + ?", delta),
				"updated_at":  time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&pair, "id = ?", pairID).Error
	})
	if err != nil {
		return nil, translate(err, "increment pot")
	}
	return &pair, nil
}

// AtomicResetPot zeroes the pot and returns the balance it held. The row is
// locked between the read and the write so an increment cannot land in
// between and be lost.
func (s *GormStore) AtomicResetPot(ctx context.Context, pairID uuid.UUID) (int64, *models.Pair, error) {
	var (
		pair     models.Pair
		previous int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&pair, "id = ?", pairID).Error; err != nil {
			return err
		}
		previous = pair.PotBalance
		now := time.Now()
		err := tx.Model(&models.Pair{}).
			Where("id = ?", pairID).
			UpdateColumns(map[string]interface{}{"pot_balance": 0, "updated_at": now}).Error
		if err != nil {
			return err
		}
		pair.PotBalance = 0
		pair.UpdatedAt = now
		return nil
	})
	if err != nil {
		return 0, nil, translate(err, "reset pot")
	}
	return previous, &pair, nil
}

func (s *GormStore) SetPotBalance(ctx context.Context, pairID uuid.UUID, balance int64) (*models.Pair, error) {
	var pair models.Pair
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Pair{}).
			Where("id = ?", pairID).
			UpdateColumns(map[string]interface{}{"pot_balance": balance, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&pair, "id = ?", pairID).Error
	})
	if err != nil {
		return nil, translate(err, "set pot")
	}
	return &pair, nil
}

func (s *GormStore) GetSettlement(ctx context.Context, pairID uuid.UUID, weekStart time.Time) (*models.Settlement, error) {
	var st models.Settlement
	err := s.db.WithContext(ctx).
		Where("pair_id = ? AND week_start_date = ?", pairID, weekStart).
		First(&st).Error
	if err != nil {
		return nil, translate(err, "get settlement")
	}
	return &st, nil
}

func (s *GormStore) LatestSettlement(ctx context.Context, pairID uuid.UUID) (*models.Settlement, error) {
	var st models.Settlement
	err := s.db.WithContext(ctx).
		Where("pair_id = ?", pairID).
		Order("week_start_date DESC").
		First(&st).Error
	if err != nil {
		return nil, translate(err, "latest settlement")
	}
	return &st, nil
}

// CreateSettlement fails with models.ErrConflict when the pair-week is
// already settled.
func (s *GormStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	return translate(s.db.WithContext(ctx).Create(settlement).Error, "create settlement")
}
