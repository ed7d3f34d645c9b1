package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestEvaluationGate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	gate := NewEvaluationGate(rdb, 30*time.Second, testLogger())
	ctx := context.Background()
	user := uuid.New()

	assert.True(t, gate.Allow(ctx, user))
	assert.False(t, gate.Allow(ctx, user))
	assert.True(t, gate.Allow(ctx, uuid.New()), "gate is per user")

	mr.FastForward(31 * time.Second)
	assert.True(t, gate.Allow(ctx, user))

	gate.Reset(ctx, user)
	assert.True(t, gate.Allow(ctx, user))
}

func TestEvaluationGate_FailsOpen(t *testing.T) {
	ctx := context.Background()

	var nilGate *EvaluationGate
	assert.True(t, nilGate.Allow(ctx, uuid.New()))
	assert.True(t, NewEvaluationGate(nil, time.Minute, testLogger()).Allow(ctx, uuid.New()))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	gate := NewEvaluationGate(rdb, time.Minute, testLogger())
	mr.Close()
	assert.True(t, gate.Allow(ctx, uuid.New()))
}
