package models

import "github.com/google/uuid"

// PotBalance is the recalculated balance of one pair.
type PotBalance struct {
	PairID  uuid.UUID `json:"pair_id"`
	Balance int64     `json:"correct_balance"`
}

// StatsResponse is returned for GET /api/stats
type StatsResponse struct {
	BuddyCount int   `json:"buddy_count"`
	TotalPots  int64 `json:"total_pots"`
}

type RecalculateRequest struct {
	PairID string `json:"pair_id"`
}

type RecalculateResponse struct {
	Message string       `json:"message"`
	Results []PotBalance `json:"results"`
}
