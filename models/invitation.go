package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// Invitation asks an email address to become someone's buddy. Only one
// pending invitation may exist per (inviter, email).
type Invitation struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	InviterUserID uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_invitations_pending,priority:1,where:status = 'pending'" json:"inviter_user_id"`
	Inviter       User             `gorm:"foreignKey:InviterUserID" json:"inviter,omitempty"`
	InviteeEmail  string           `gorm:"not null;size:255;index;uniqueIndex:idx_invitations_pending,priority:2,where:status = 'pending'" json:"invitee_email"`
	InviteeName   string           `gorm:"size:100" json:"invitee_name"`
	Status        InvitationStatus `gorm:"not null;default:pending;size:20" json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	AcceptedAt    *time.Time       `json:"accepted_at,omitempty"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func NewInvitation(inviterID uuid.UUID, email, name string) Invitation {
	email = NormalizeEmail(email)
	if name == "" {
		name = email
	}
	return Invitation{
		InviterUserID: inviterID,
		InviteeEmail:  email,
		InviteeName:   name,
		Status:        InvitationPending,
	}
}

type InvitationResponse struct {
	Type       string     `json:"type"`
	Message    string     `json:"message"`
	Invitation Invitation `json:"invitation"`
}

type AcceptInvitationResponse struct {
	Invitation Invitation `json:"invitation"`
	Pair       Pair       `json:"pair"`
}
