package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"potbuddy-backend/models"
	"potbuddy-backend/store"
)

// Pairing manages buddy pairs and the invitations that create them.
type Pairing struct {
	store    store.Store
	notifier Notifier
	activity ActivityRecorder
	log      *zap.SugaredLogger
}

func NewPairing(s store.Store, notifier Notifier, activity ActivityRecorder, log *zap.SugaredLogger) *Pairing {
	return &Pairing{store: s, notifier: notifier, activity: activity, log: log}
}

// AddBuddyResult holds exactly one of Buddy (the email belonged to a user)
// or Invitation (it did not).
type AddBuddyResult struct {
	Buddy      *models.BuddyResponse
	Invitation *models.Invitation
}

func (p *Pairing) AddBuddy(ctx context.Context, userID uuid.UUID, email, name string) (*AddBuddyResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", models.ErrValidation, email)
	}

	me, err := p.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if me.Email == email {
		return nil, fmt.Errorf("%w: you cannot add yourself as a buddy", models.ErrValidation)
	}

	buddy, err := p.store.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return p.invite(ctx, *me, email, name)
	case err != nil:
		return nil, err
	}

	pair := models.NewPair(userID, buddy.ID)
	if err := p.store.CreatePair(ctx, &pair); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: you are already buddies with this user", models.ErrConflict)
		}
		return nil, err
	}

	p.log.Infow("pair created", "pair_id", pair.ID, "user_id", userID, "buddy_id", buddy.ID)
	p.activity.Record(ctx, models.NewActivity(pair.ID, userID, models.ActivityBuddyAdded, buddy.ID,
		fmt.Sprintf("%s and %s are now buddies", me.DisplayName(), buddy.DisplayName())))
	p.notifier.BuddyAdded(ctx, *me, *buddy)

	return &AddBuddyResult{Buddy: &models.BuddyResponse{
		PairID:     pair.ID,
		Buddy:      buddy.ToResponse(),
		PotBalance: pair.PotBalance,
		IsPaused:   pair.IsPaused,
	}}, nil
}

func (p *Pairing) invite(ctx context.Context, inviter models.User, email, name string) (*AddBuddyResult, error) {
	inv := models.NewInvitation(inviter.ID, email, name)
	if err := p.store.CreateInvitation(ctx, &inv); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: an invitation to %s is already pending", models.ErrConflict, email)
		}
		return nil, err
	}
	p.log.Infow("invitation created", "invitation_id", inv.ID, "inviter_id", inviter.ID)
	p.notifier.InvitationCreated(ctx, inviter, inv)
	return &AddBuddyResult{Invitation: &inv}, nil
}

func (p *Pairing) ListBuddies(ctx context.Context, userID uuid.UUID) ([]models.BuddyResponse, error) {
	pairs, err := p.store.GetPairsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(pairs))
	for _, pair := range pairs {
		ids = append(ids, pair.BuddyOf(userID))
	}
	users, err := p.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	buddies := make([]models.BuddyResponse, 0, len(pairs))
	for _, pair := range pairs {
		buddy := users[pair.BuddyOf(userID)]
		buddies = append(buddies, models.BuddyResponse{
			PairID:     pair.ID,
			Buddy:      buddy.ToResponse(),
			PotBalance: pair.PotBalance,
			IsPaused:   pair.IsPaused,
		})
	}
	return buddies, nil
}

func (p *Pairing) GetPairDetails(ctx context.Context, userID, pairID uuid.UUID) (*models.PairDetailsResponse, error) {
	pair, err := memberPair(ctx, p.store, userID, pairID)
	if err != nil {
		return nil, err
	}
	settlements, err := p.store.ListSettlements(ctx, pairID)
	if err != nil {
		return nil, err
	}
	return &models.PairDetailsResponse{Pair: *pair, Settlements: settlements}, nil
}

// RemoveBuddy dissolves the pair with its settlement history. Workouts
// belong to the users and stay.
func (p *Pairing) RemoveBuddy(ctx context.Context, userID, pairID uuid.UUID) error {
	if _, err := memberPair(ctx, p.store, userID, pairID); err != nil {
		return err
	}
	if err := p.store.DeletePair(ctx, pairID); err != nil {
		return err
	}
	p.log.Infow("pair removed", "pair_id", pairID, "by", userID)
	return nil
}

// PendingInvitations lists invitations the user sent that are still open.
func (p *Pairing) PendingInvitations(ctx context.Context, userID uuid.UUID) ([]models.Invitation, error) {
	return p.store.PendingInvitationsByInviter(ctx, userID)
}

// ReceivedInvitations lists open invitations addressed to email.
func (p *Pairing) ReceivedInvitations(ctx context.Context, email string) ([]models.Invitation, error) {
	if models.NormalizeEmail(email) == "" {
		return nil, fmt.Errorf("%w: user email not found", models.ErrValidation)
	}
	return p.store.PendingInvitationsForEmail(ctx, email)
}

// AcceptInvitation pairs the invitee with the inviter. If they became
// buddies some other way in the meantime the existing pair is returned.
func (p *Pairing) AcceptInvitation(ctx context.Context, invitationID, userID uuid.UUID) (*models.AcceptInvitationResponse, error) {
	me, inv, err := p.invitee(ctx, invitationID, userID)
	if err != nil {
		return nil, err
	}
	if inv.InviterUserID == userID {
		return nil, fmt.Errorf("%w: you cannot accept your own invitation", models.ErrValidation)
	}

	var (
		pair    *models.Pair
		created bool
	)
	err = p.store.Within(ctx, func(tx store.Store) error {
		if err := tx.ResolveInvitation(ctx, inv.ID, models.InvitationAccepted); err != nil {
			return err
		}
		existing, err := tx.GetPairByUsers(ctx, inv.InviterUserID, userID)
		switch {
		case err == nil:
			pair = existing
			return nil
		case !errors.Is(err, models.ErrNotFound):
			return err
		}
		np := models.NewPair(inv.InviterUserID, userID)
		if err := tx.CreatePair(ctx, &np); err != nil {
			return err
		}
		pair, created = &np, true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		p.log.Infow("invitation accepted", "invitation_id", inv.ID, "pair_id", pair.ID)
		p.activity.Record(ctx, models.NewActivity(pair.ID, userID, models.ActivityBuddyAdded, inv.ID,
			fmt.Sprintf("%s accepted %s's invitation", me.DisplayName(), inv.Inviter.DisplayName())))
		p.notifier.BuddyAdded(ctx, *me, inv.Inviter)
	}

	accepted, err := p.store.GetInvitation(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return &models.AcceptInvitationResponse{Invitation: *accepted, Pair: *pair}, nil
}

func (p *Pairing) DeclineInvitation(ctx context.Context, invitationID, userID uuid.UUID) error {
	_, inv, err := p.invitee(ctx, invitationID, userID)
	if err != nil {
		return err
	}
	return p.store.ResolveInvitation(ctx, inv.ID, models.InvitationDeclined)
}

// DeleteInvitation withdraws an invitation. Only the inviter may do this.
func (p *Pairing) DeleteInvitation(ctx context.Context, invitationID, userID uuid.UUID) error {
	inv, err := p.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.InviterUserID != userID {
		return fmt.Errorf("%w: only the inviter can delete an invitation", models.ErrForbidden)
	}
	return p.store.DeleteInvitation(ctx, invitationID)
}

// invitee loads the invitation and checks that it is addressed to userID.
func (p *Pairing) invitee(ctx context.Context, invitationID, userID uuid.UUID) (*models.User, *models.Invitation, error) {
	me, err := p.store.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	inv, err := p.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, nil, err
	}
	if inv.InviteeEmail != me.Email {
		return nil, nil, fmt.Errorf("%w: invitation is addressed to someone else", models.ErrForbidden)
	}
	if inv.Status != models.InvitationPending {
		return nil, nil, fmt.Errorf("%w: invitation is already %s", models.ErrConflict, inv.Status)
	}
	return me, inv, nil
}

func (p *Pairing) Stats(ctx context.Context, userID uuid.UUID) (*models.StatsResponse, error) {
	pairs, err := p.store.GetPairsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &models.StatsResponse{BuddyCount: len(pairs)}
	for _, pair := range pairs {
		stats.TotalPots += pair.PotBalance
	}
	return stats, nil
}
