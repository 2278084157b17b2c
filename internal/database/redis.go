package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/NEBULA-33/nebula-1/internal/config"
)

// ConnectRedis returns nil when Redis is disabled or unreachable; callers
// then fall back to in-process carts and rate limiting.
func ConnectRedis(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to connect to Redis, using in-memory carts")
		client.Close()
		return nil
	}

	logrus.WithField("addr", cfg.Addr()).Info("Redis connected")
	return client
}
