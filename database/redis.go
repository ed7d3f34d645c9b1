package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis returns nil when no URL is configured or the server is not
// reachable; callers run without the evaluation gate in that case.
func ConnectRedis(url string, log *zap.SugaredLogger) *redis.Client {
	if url == "" {
		log.Info("redis not configured, running without evaluation gate")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warnw("invalid REDIS_URL, running without evaluation gate", "err", err)
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnw("redis not available, running without evaluation gate", "err", err)
		_ = client.Close()
		return nil
	}

	log.Info("redis connected")
	return client
}
