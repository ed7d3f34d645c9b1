package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"potbuddy-backend/models"
	"potbuddy-backend/store"
)

// ActivityRecorder appends entries to a pair's feed. Recording is best
// effort: a failed write is logged and never fails the ledger operation.
type ActivityRecorder interface {
	Record(ctx context.Context, a models.Activity)
}

type ActivityService struct {
	store store.Store
	log   *zap.SugaredLogger
}

var _ ActivityRecorder = (*ActivityService)(nil)

func NewActivityService(s store.Store, log *zap.SugaredLogger) *ActivityService {
	return &ActivityService{store: s, log: log}
}

func (s *ActivityService) Record(ctx context.Context, a models.Activity) {
	if err := s.store.CreateActivity(ctx, &a); err != nil {
		s.log.Warnw("activity not recorded", "type", a.Type, "pair_id", a.PairID, "error", err)
	}
}

// Feed returns the newest activity across all of the user's pairs.
func (s *ActivityService) Feed(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Activity, error) {
	pairs, err := s.store.GetPairsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(pairs))
	for _, p := range pairs {
		ids = append(ids, p.ID)
	}
	return s.store.ListActivity(ctx, ids, offset, limit)
}
