package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"potbuddy-backend/database"
	"potbuddy-backend/models"
)

// createTestStore opens a migrated SQLite store in a temp directory.
func createTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return New(db)
}

func createTestUser(t *testing.T, s *GormStore, email string) *models.User {
	t.Helper()
	u := models.NewUser(uuid.New(), email, "")
	user, err := s.UpsertUser(context.Background(), &u)
	require.NoError(t, err)
	return user
}

func createTestPair(t *testing.T, s *GormStore, a, b uuid.UUID) *models.Pair {
	t.Helper()
	p := models.NewPair(a, b)
	require.NoError(t, s.CreatePair(context.Background(), &p))
	return &p
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
