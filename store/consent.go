package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"potbuddy-backend/models"
)

func (s *GormStore) CreateConsentRequest(ctx context.Context, req *models.ConsentRequest) error {
	return translate(s.db.WithContext(ctx).Create(req).Error, "create consent request")
}

func (s *GormStore) GetConsentRequest(ctx context.Context, id uuid.UUID) (*models.ConsentRequest, error) {
	var req models.ConsentRequest
	if err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get consent request")
	}
	return &req, nil
}

func (s *GormStore) PendingConsentRequests(ctx context.Context, pairIDs []uuid.UUID) ([]models.ConsentRequest, error) {
	var reqs []models.ConsentRequest
	if len(pairIDs) == 0 {
		return reqs, nil
	}
	err := s.db.WithContext(ctx).
		Where("pair_id IN ? AND status = ?", pairIDs, models.ConsentPending).
		Order("created_at ASC").
		Find(&reqs).Error
	if err != nil {
		return nil, translate(err, "pending consent requests")
	}
	return reqs, nil
}

// ResolveConsentRequest moves a pending request to status. Only one caller
// can win the transition; the others get models.ErrConflict.
func (s *GormStore) ResolveConsentRequest(ctx context.Context, id uuid.UUID, status models.ConsentStatus) error {
	res := s.db.WithContext(ctx).Model(&models.ConsentRequest{}).
		Where("id = ? AND status = ?", id, models.ConsentPending).
		UpdateColumns(map[string]interface{}{"status": status, "resolved_at": time.Now()})
	if res.Error != nil {
		return translate(res.Error, "resolve consent request")
	}
	if res.RowsAffected == 0 {
		return translate(models.ErrConflict, "resolve consent request")
	}
	return nil
}
