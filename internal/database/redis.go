package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/assessment-pipeline/internal/config"
)

// NewRedisClient opens the client used for the public payload cache, the
// attempt queue and review events.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	ping := PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	if err := pingWithRetry(ctx, "redis", ping, log); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	log.Info().Str("addr", opt.Addr).Int("db", opt.DB).Msg("redis connected")
	return rdb, nil
}
