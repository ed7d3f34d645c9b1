package store

import (
	"context"

	"github.com/google/uuid"

	"potbuddy-backend/models"
)

func (s *GormStore) CreateActivity(ctx context.Context, a *models.Activity) error {
	return translate(s.db.WithContext(ctx).Create(a).Error, "create activity")
}

func (s *GormStore) ListActivity(ctx context.Context, pairIDs []uuid.UUID, offset, limit int) ([]models.Activity, error) {
	var activities []models.Activity
	if len(pairIDs) == 0 {
		return activities, nil
	}
	err := s.db.WithContext(ctx).
		Where("pair_id IN ?", pairIDs).
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, translate(err, "list activity")
	}
	return activities, nil
}
