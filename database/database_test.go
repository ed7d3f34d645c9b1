package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"potbuddy-backend/models"
)

func TestConnect_SQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := Connect("sqlite://"+path, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, Migrate(db))
	// second run must be a no-op
	require.NoError(t, Migrate(db))

	for _, table := range []interface{}{
		&models.User{}, &models.Pair{}, &models.Workout{}, &models.Settlement{},
		&models.Invitation{}, &models.ConsentRequest{}, &models.Activity{},
	} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Settlement{}, "idx_settlements_pair_week"))
	assert.True(t, db.Migrator().HasIndex(&models.Workout{}, "idx_workouts_user_date"))
	assert.True(t, db.Migrator().HasIndex(&models.Pair{}, "idx_pairs_users"))
}

func TestConnectRedis_Unconfigured(t *testing.T) {
	assert.Nil(t, ConnectRedis("", zap.NewNop().Sugar()))
	assert.Nil(t, ConnectRedis("not a url", zap.NewNop().Sugar()))
}

func TestWithUTC(t *testing.T) {
	assert.Equal(t, "postgres://u:p@h/db?timezone=UTC", withUTC("postgres://u:p@h/db"))
	assert.Equal(t, "postgres://u:p@h/db?sslmode=disable&timezone=UTC", withUTC("postgres://u:p@h/db?sslmode=disable"))
	assert.Equal(t, "host=h dbname=db TimeZone=UTC", withUTC("host=h dbname=db"))
	assert.Equal(t, "host=h TimeZone=Europe/Berlin", withUTC("host=h TimeZone=Europe/Berlin"))
}
