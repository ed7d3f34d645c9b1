package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"potbuddy-backend/models"
)

// UpsertUser creates the user on first authentication and refreshes email and
// name afterwards.
func (s *GormStore) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "updated_at"}),
		}).
		Create(user).Error
	if err != nil {
		return nil, translate(err, "upsert user")
	}
	return s.GetUser(ctx, user.ID)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", models.NormalizeEmail(email)).Error
	if err != nil {
		return nil, translate(err, "get user by email")
	}
	return &user, nil
}

// GetUsers loads users keyed by id; missing ids are simply absent.
func (s *GormStore) GetUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err, "get users")
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *GormStore) UpdateFCMToken(ctx context.Context, userID uuid.UUID, token string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{"fcm_token": token, "updated_at": time.Now()})
	if res.Error != nil {
		return translate(res.Error, "update fcm token")
	}
	if res.RowsAffected == 0 {
		return translate(models.ErrNotFound, "update fcm token")
	}
	return nil
}

// ListWorkouts returns a user's workouts in [from, to] ordered by date.
func (s *GormStore) ListWorkouts(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Workout, error) {
	var workouts []models.Workout
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&workouts).Error
	if err != nil {
		return nil, translate(err, "list workouts")
	}
	return workouts, nil
}
