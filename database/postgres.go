package database

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"potbuddy-backend/models"
)

const sqlitePrefix = "sqlite://"

// Connect opens the ledger database. DATABASE_URL values starting with
// sqlite:// open a local SQLite file instead of Postgres.
func Connect(databaseURL string, log *zap.SugaredLogger) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        utcNow,
	}

	if strings.HasPrefix(databaseURL, sqlitePrefix) {
		db, err := OpenSQLite(strings.TrimPrefix(databaseURL, sqlitePrefix))
		if err != nil {
			return nil, err
		}
		log.Infow("database connected", "driver", "sqlite")
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(withUTC(databaseURL)), cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Infow("database connected", "driver", "postgres")
	return db, nil
}

// withUTC pins the session time zone so date columns read back as the
// calendar day that was written.
func withUTC(dsn string) string {
	if strings.Contains(dsn, "timezone=") || strings.Contains(dsn, "TimeZone=") {
		return dsn
	}
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "timezone=UTC"
	}
	return dsn + " TimeZone=UTC"
}

// utcNow stamps created_at/updated_at in UTC so they compare with the UTC
// instants the services store.
func utcNow() time.Time { return time.Now().UTC() }

// OpenSQLite opens a SQLite database at path. SQLite allows a single writer,
// so the pool is limited to one connection and transactions serialise.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        utcNow,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return db, nil
}

// Migrate creates or updates the schema. It is idempotent and runs once at
// process start or through the migrate command.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Pair{},
		&models.Workout{},
		&models.Settlement{},
		&models.Invitation{},
		&models.ConsentRequest{},
		&models.Activity{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
