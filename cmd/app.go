package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"potbuddy-backend/config"
	"potbuddy-backend/database"
	"potbuddy-backend/handlers"
	"potbuddy-backend/services"
	"potbuddy-backend/store"
	"potbuddy-backend/utils"
)

// app is the wired object graph shared by the commands.
type app struct {
	cfg   *config.Config
	log   *zap.SugaredLogger
	zlog  *zap.Logger
	db    *gorm.DB
	redis *redis.Client
	store *store.GormStore

	activity     *services.ActivityService
	notifier     *services.NotificationService
	recorder     *services.Recorder
	evaluator    *services.Evaluator
	recalculator *services.Recalculator
	pairing      *services.Pairing
	consent      *services.Consent
	gate         *services.EvaluationGate
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	zlog, err := utils.NewLogger(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	log := zlog.Sugar()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	s := store.New(db)
	rules := cfg.Ledger
	a := &app{
		cfg:   cfg,
		log:   log,
		zlog:  zlog,
		db:    db,
		redis: database.ConnectRedis(cfg.RedisURL, log),
		store: s,
	}
	a.activity = services.NewActivityService(s, log)
	a.notifier = services.NewNotificationService(ctx, cfg, log)
	a.recorder = services.NewRecorder(s, rules, log)
	a.evaluator = services.NewEvaluator(s, rules, a.notifier, a.activity, log)
	a.recalculator = services.NewRecalculator(s, rules, a.activity, log)
	a.pairing = services.NewPairing(s, a.notifier, a.activity, log)
	a.consent = services.NewConsent(s, a.activity, log)
	a.gate = services.NewEvaluationGate(a.redis, rules.EvaluateThrottle, log)
	return a, nil
}

func (a *app) handler() *handlers.Handler {
	return &handlers.Handler{
		Store:        a.store,
		Recorder:     a.recorder,
		Evaluator:    a.evaluator,
		Recalculator: a.recalculator,
		Pairing:      a.pairing,
		Consent:      a.consent,
		Activity:     a.activity,
		Gate:         a.gate,
		AppName:      a.cfg.AppName,
		Log:          a.log,
	}
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	a.zlog.Sync()
}
