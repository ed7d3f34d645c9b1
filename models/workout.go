package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkoutStatus string

const (
	StatusWorked WorkoutStatus = "worked"
	StatusMissed WorkoutStatus = "missed"
)

func (s WorkoutStatus) Valid() bool {
	return s == StatusWorked || s == StatusMissed
}

// Workout is one user's outcome for one calendar day. Date is stored at
// midnight UTC.
type Workout struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_workouts_user_date,priority:1" json:"user_id"`
	Date      time.Time     `gorm:"type:date;not null;uniqueIndex:idx_workouts_user_date,priority:2" json:"date"`
	Status    WorkoutStatus `gorm:"not null;size:10" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (w *Workout) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func NewWorkout(userID uuid.UUID, date time.Time, status WorkoutStatus) Workout {
	return Workout{
		UserID: userID,
		Date:   date,
		Status: status,
	}
}

type LogWorkoutRequest struct {
	Date   string `json:"date"` // YYYY-MM-DD, defaults to today
	Status string `json:"status" binding:"required"`
}

type WorkoutResponse struct {
	Workout  Workout        `json:"workout"`
	Previous *WorkoutStatus `json:"previous_status"`
	Delta    int64          `json:"pot_delta"`
}

// WeekSummary groups a user's workouts for one Monday-based week.
type WeekSummary struct {
	WeekStartDate string    `json:"week_start_date"`
	Workouts      []Workout `json:"workouts"`
	WorkoutCount  int       `json:"workout_count"`
}
