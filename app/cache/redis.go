// Package cache connects to the Redis instance that backs shared rate limit
// counters.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-journal/config"

	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// Connect returns a nil client and no error when REDIS_ADDR is unset.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
