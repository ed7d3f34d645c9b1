package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settlement is the immutable record of a weekly payout. The unique index on
// (pair_id, week_start_date) is what makes settlement exactly-once.
type Settlement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PairID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_settlements_pair_week,priority:1" json:"pair_id"`
	WeekStartDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_settlements_pair_week,priority:2" json:"week_start_date"`
	WinnerUserID  uuid.UUID `gorm:"type:uuid;not null" json:"winner_user_id"`
	LoserUserID   uuid.UUID `gorm:"type:uuid;not null" json:"loser_user_id"`
	Amount        int64     `gorm:"not null" json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func NewSettlement(pairID uuid.UUID, weekStart time.Time, winnerID, loserID uuid.UUID, amount int64) Settlement {
	return Settlement{
		PairID:        pairID,
		WeekStartDate: weekStart,
		WinnerUserID:  winnerID,
		LoserUserID:   loserID,
		Amount:        amount,
	}
}

type EvaluateResponse struct {
	SettlementsCreated int          `json:"settlements_created"`
	Settlements        []Settlement `json:"settlements"`
	Failures           int          `json:"failures"`
	Skipped            bool         `json:"skipped,omitempty"`
}
