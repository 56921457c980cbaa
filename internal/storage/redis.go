package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmaldonado1992/MedVerify/internal/config"
)

// NewRedisClient connects to Redis. It returns nil, nil when no address is
// configured so callers can run without the link cache.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, defaultDBTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
