package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EvaluationGate limits how often evaluate-on-access runs for one user.
// It is only an optimisation: when Redis is absent or failing every call is
// allowed, and settlement stays exactly-once through the store.
type EvaluationGate struct {
	rdb    *redis.Client
	window time.Duration
	log    *zap.SugaredLogger
}

func NewEvaluationGate(rdb *redis.Client, window time.Duration, log *zap.SugaredLogger) *EvaluationGate {
	return &EvaluationGate{rdb: rdb, window: window, log: log}
}

func gateKey(userID uuid.UUID) string {
	return "potbuddy:evaluate:" + userID.String()
}

// Allow reports whether an evaluation for userID should run now. The first
// caller inside a window wins.
func (g *EvaluationGate) Allow(ctx context.Context, userID uuid.UUID) bool {
	if g == nil || g.rdb == nil || g.window <= 0 {
		return true
	}
	ok, err := g.rdb.SetNX(ctx, gateKey(userID), time.Now().Unix(), g.window).Result()
	if err != nil {
		g.log.Warnw("evaluation gate unavailable", "error", err)
		return true
	}
	return ok
}

// Reset reopens the gate for userID, used after a failed evaluation.
func (g *EvaluationGate) Reset(ctx context.Context, userID uuid.UUID) {
	if g == nil || g.rdb == nil {
		return
	}
	if err := g.rdb.Del(ctx, gateKey(userID)).Err(); err != nil {
		g.log.Warnw("evaluation gate reset failed", "error", err)
	}
}
