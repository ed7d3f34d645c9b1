package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConsentType string

const (
	ConsentPause    ConsentType = "pause"
	ConsentResume   ConsentType = "resume"
	ConsentResetPot ConsentType = "reset_pot"
)

func (t ConsentType) Valid() bool {
	switch t {
	case ConsentPause, ConsentResume, ConsentResetPot:
		return true
	}
	return false
}

type ConsentStatus string

const (
	ConsentPending  ConsentStatus = "pending"
	ConsentAccepted ConsentStatus = "accepted"
	ConsentDenied   ConsentStatus = "denied"
)

// ConsentRequest is a change to a pair that only takes effect once the other
// member accepts it.
type ConsentRequest struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	PairID          uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_consent_pending,priority:1,where:status = 'pending'" json:"pair_id"`
	RequesterUserID uuid.UUID     `gorm:"type:uuid;not null" json:"requester_user_id"`
	Type            ConsentType   `gorm:"not null;size:20;uniqueIndex:idx_consent_pending,priority:2,where:status = 'pending'" json:"type"`
	Status          ConsentStatus `gorm:"not null;default:pending;size:20" json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty"`
}

func (r *ConsentRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func NewConsentRequest(pairID, requesterID uuid.UUID, kind ConsentType) ConsentRequest {
	return ConsentRequest{
		PairID:          pairID,
		RequesterUserID: requesterID,
		Type:            kind,
		Status:          ConsentPending,
	}
}

type CreateConsentRequest struct {
	Type string `json:"type" binding:"required"`
}
