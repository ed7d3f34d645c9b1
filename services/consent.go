package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"potbuddy-backend/models"
	"potbuddy-backend/store"
)

// Consent handles pair changes that need both members to agree: pausing,
// resuming and zeroing the pot.
type Consent struct {
	store    store.Store
	activity ActivityRecorder
	log      *zap.SugaredLogger

	Now func() time.Time
}

func NewConsent(s store.Store, activity ActivityRecorder, log *zap.SugaredLogger) *Consent {
	return &Consent{store: s, activity: activity, log: log, Now: time.Now}
}

func (c *Consent) Request(ctx context.Context, userID, pairID uuid.UUID, kind string) (*models.ConsentRequest, error) {
	t := models.ConsentType(kind)
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown request type %q", models.ErrValidation, kind)
	}
	pair, err := memberPair(ctx, c.store, userID, pairID)
	if err != nil {
		return nil, err
	}
	switch {
	case t == models.ConsentPause && pair.IsPaused:
		return nil, fmt.Errorf("%w: pair is already paused", models.ErrConflict)
	case t == models.ConsentResume && !pair.IsPaused:
		return nil, fmt.Errorf("%w: pair is not paused", models.ErrConflict)
	}

	req := models.NewConsentRequest(pair.ID, userID, t)
	if err := c.store.CreateConsentRequest(ctx, &req); err != nil {
		return nil, err
	}
	c.log.Infow("consent requested", "pair_id", pair.ID, "type", t, "by", userID)
	return &req, nil
}

// Pending lists open requests on the user's pairs, including their own.
func (c *Consent) Pending(ctx context.Context, userID uuid.UUID) ([]models.ConsentRequest, error) {
	pairs, err := c.store.GetPairsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(pairs))
	for _, p := range pairs {
		ids = append(ids, p.ID)
	}
	return c.store.PendingConsentRequests(ctx, ids)
}

// Respond accepts or denies a request. Only the member who did not ask may
// answer; acceptance applies the change in the same transaction.
func (c *Consent) Respond(ctx context.Context, userID, requestID uuid.UUID, accept bool) (*models.ConsentRequest, error) {
	req, err := c.store.GetConsentRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := memberPair(ctx, c.store, userID, req.PairID); err != nil {
		return nil, err
	}
	if req.RequesterUserID == userID {
		return nil, fmt.Errorf("%w: the other buddy has to answer this request", models.ErrForbidden)
	}

	status := models.ConsentDenied
	if accept {
		status = models.ConsentAccepted
	}

	var activity *models.Activity
	err = c.store.Within(ctx, func(tx store.Store) error {
		if err := tx.ResolveConsentRequest(ctx, req.ID, status); err != nil {
			return err
		}
		if !accept {
			return nil
		}
		a, err := c.apply(ctx, tx, req, userID)
		activity = a
		return err
	})
	if err != nil {
		return nil, err
	}

	if activity != nil {
		c.activity.Record(ctx, *activity)
	}
	c.log.Infow("consent resolved", "request_id", req.ID, "type", req.Type, "status", status)
	return c.store.GetConsentRequest(ctx, req.ID)
}

func (c *Consent) apply(ctx context.Context, tx store.Store, req *models.ConsentRequest, approver uuid.UUID) (*models.Activity, error) {
	switch req.Type {
	case models.ConsentPause:
		if err := tx.SetPaused(ctx, req.PairID, true); err != nil {
			return nil, err
		}
		a := models.NewActivity(req.PairID, approver, models.ActivityPairPaused, req.ID, "Pair paused")
		return &a, nil
	case models.ConsentResume:
		if err := tx.SetPaused(ctx, req.PairID, false); err != nil {
			return nil, err
		}
		a := models.NewActivity(req.PairID, approver, models.ActivityPairResumed, req.ID, "Pair resumed")
		return &a, nil
	case models.ConsentResetPot:
		previous, _, err := tx.AtomicResetPot(ctx, req.PairID)
		if err != nil {
			return nil, err
		}
		if err := tx.MarkPotReset(ctx, req.PairID, c.Now()); err != nil {
			return nil, err
		}
		a := models.NewActivity(req.PairID, approver, models.ActivityPotReset, req.ID,
			fmt.Sprintf("Pot of %d reset by agreement", previous))
		return &a, nil
	}
	return nil, fmt.Errorf("%w: unknown request type %q", models.ErrValidation, req.Type)
}

// memberPair loads a pair and checks that userID belongs to it.
func memberPair(ctx context.Context, s store.Ledger, userID, pairID uuid.UUID) (*models.Pair, error) {
	pair, err := s.GetPair(ctx, pairID)
	if err != nil {
		return nil, err
	}
	if !pair.HasMember(userID) {
		return nil, fmt.Errorf("%w: not a member of this pair", models.ErrForbidden)
	}
	return pair, nil
}
