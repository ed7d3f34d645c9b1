package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"potbuddy-backend/models"
)

// CreateInvitation fails with models.ErrConflict while a pending invitation
// for the same (inviter, email) exists.
func (s *GormStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	return translate(s.db.WithContext(ctx).Create(inv).Error, "create invitation")
}

func (s *GormStore) GetInvitation(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	var inv models.Invitation
	if err := s.db.WithContext(ctx).Preload("Inviter").First(&inv, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get invitation")
	}
	return &inv, nil
}

func (s *GormStore) PendingInvitationsByInviter(ctx context.Context, inviterID uuid.UUID) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := s.db.WithContext(ctx).
		Where("inviter_user_id = ? AND status = ?", inviterID, models.InvitationPending).
		Order("created_at DESC").
		Find(&invs).Error
	if err != nil {
		return nil, translate(err, "pending invitations")
	}
	return invs, nil
}

func (s *GormStore) PendingInvitationsForEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := s.db.WithContext(ctx).
		Preload("Inviter").
		Where("invitee_email = ? AND status = ?", models.NormalizeEmail(email), models.InvitationPending).
		Order("created_at DESC").
		Find(&invs).Error
	if err != nil {
		return nil, translate(err, "received invitations")
	}
	return invs, nil
}

// ResolveInvitation moves a pending invitation to status. Resolving an
// invitation that is no longer pending fails with models.ErrConflict.
func (s *GormStore) ResolveInvitation(ctx context.Context, id uuid.UUID, status models.InvitationStatus) error {
	cols := map[string]interface{}{"status": status}
	if status == models.InvitationAccepted {
		cols["accepted_at"] = time.Now()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", id, models.InvitationPending).
			UpdateColumns(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Invitation{}).Where("id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return gorm.ErrRecordNotFound
			}
			return models.ErrConflict
		}
		return nil
	})
	return translate(err, "resolve invitation")
}

func (s *GormStore) DeleteInvitation(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Invitation{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "delete invitation")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "delete invitation")
	}
	return nil
}
