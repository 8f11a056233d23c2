package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/launchgate-inc/launchgate-engine/pkg/config"
)

// NewRedisClient creates a Redis client for the redis storage driver and
// verifies the connection before returning it.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	return client, nil
}
