package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pair is an undirected buddy relationship. UserAID always sorts before
// UserBID so (A,B) and (B,A) map to the same row.
type Pair struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserAID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_pairs_users,priority:1" json:"user_a_id"`
	UserBID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_pairs_users,priority:2;index" json:"user_b_id"`
	PotBalance int64      `gorm:"not null;default:0" json:"pot_balance"`
	IsPaused   bool       `gorm:"not null;default:false" json:"is_paused"`
	PotResetAt *time.Time `json:"pot_reset_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (p *Pair) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CanonicalUsers orders two user ids the way pairs are stored.
func CanonicalUsers(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if b.String() < a.String() {
		return b, a
	}
	return a, b
}

func NewPair(userID, buddyID uuid.UUID) Pair {
	a, b := CanonicalUsers(userID, buddyID)
	return Pair{
		UserAID:    a,
		UserBID:    b,
		PotBalance: 0,
		IsPaused:   false,
	}
}

func (p *Pair) HasMember(userID uuid.UUID) bool {
	return p.UserAID == userID || p.UserBID == userID
}

// BuddyOf returns the other member of the pair.
func (p *Pair) BuddyOf(userID uuid.UUID) uuid.UUID {
	if p.UserAID == userID {
		return p.UserBID
	}
	return p.UserAID
}

type AddBuddyRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name"`
}

type BuddyResponse struct {
	PairID     uuid.UUID    `json:"pair_id"`
	Buddy      UserResponse `json:"buddy"`
	PotBalance int64        `json:"pot_balance"`
	IsPaused   bool         `json:"is_paused"`
}

type PairDetailsResponse struct {
	Pair        Pair         `json:"pair"`
	Settlements []Settlement `json:"settlements"`
}
