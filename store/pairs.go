package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"potbuddy-backend/models"
)

// CreatePair inserts a canonically ordered pair. A second pair between the
// same two users fails with models.ErrConflict.
func (s *GormStore) CreatePair(ctx context.Context, pair *models.Pair) error {
	pair.UserAID, pair.UserBID = models.CanonicalUsers(pair.UserAID, pair.UserBID)
	return translate(s.db.WithContext(ctx).Create(pair).Error, "create pair")
}

// GetPairByUsers finds the pair between two users in either order.
func (s *GormStore) GetPairByUsers(ctx context.Context, a, b uuid.UUID) (*models.Pair, error) {
	a, b = models.CanonicalUsers(a, b)
	var pair models.Pair
	err := s.db.WithContext(ctx).First(&pair, "user_a_id = ? AND user_b_id = ?", a, b).Error
	if err != nil {
		return nil, translate(err, "get pair by users")
	}
	return &pair, nil
}

// DeletePair removes the pair together with its settlements, consent
// requests and activity. Workouts belong to users and are kept.
func (s *GormStore) DeletePair(ctx context.Context, pairID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&models.Settlement{}, &models.ConsentRequest{}, &models.Activity{}} {
			if err := tx.Where("pair_id = ?", pairID).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Pair{}, "id = ?", pairID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "delete pair")
}

func (s *GormStore) ListSettlements(ctx context.Context, pairID uuid.UUID) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := s.db.WithContext(ctx).
		Where("pair_id = ?", pairID).
		Order("week_start_date DESC").
		Find(&settlements).Error
	if err != nil {
		return nil, translate(err, "list settlements")
	}
	return settlements, nil
}

func (s *GormStore) SetPaused(ctx context.Context, pairID uuid.UUID, paused bool) error {
	return s.updatePair(ctx, pairID, map[string]interface{}{"is_paused": paused}, "set paused")
}

// MarkPotReset records when the pot was last zeroed by mutual consent; the
// recalculator treats it as a boundary.
func (s *GormStore) MarkPotReset(ctx context.Context, pairID uuid.UUID, at time.Time) error {
	return s.updatePair(ctx, pairID, map[string]interface{}{"pot_reset_at": at.UTC()}, "mark pot reset")
}

func (s *GormStore) updatePair(ctx context.Context, pairID uuid.UUID, cols map[string]interface{}, op string) error {
	cols["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Pair{}).Where("id = ?", pairID).UpdateColumns(cols)
	if res.Error != nil {
		return translate(res.Error, op)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, op)
	}
	return nil
}
