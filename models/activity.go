package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActivityBuddyAdded      = "buddy_added"
	ActivitySettlement      = "settlement"
	ActivityPotRecalculated = "pot_recalculated"
	ActivityPotReset        = "pot_reset"
	ActivityPairPaused      = "pair_paused"
	ActivityPairResumed     = "pair_resumed"
)

type Activity struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PairID      uuid.UUID `gorm:"type:uuid;index" json:"pair_id"`
	UserID      uuid.UUID `gorm:"type:uuid" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type        string    `gorm:"not null;size:30" json:"type"`
	ReferenceID uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func NewActivity(pairID, userID uuid.UUID, kind string, referenceID uuid.UUID, description string) Activity {
	return Activity{
		PairID:      pairID,
		UserID:      userID,
		Type:        kind,
		ReferenceID: referenceID,
		Description: description,
	}
}
