package server

import (
	"context"
	"time"

	"car-price/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis returns a client when redis is configured and answers a ping,
// nil otherwise.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	addr := cfg.Addr()
	if addr == "" {
		logger.Info("Redis not configured, using in-process rate limiter")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, using in-process rate limiter",
			zap.String("addr", addr),
			zap.Error(err),
		)
		_ = client.Close()
		return nil
	}

	logger.Info("Connected to redis", zap.String("addr", addr))
	return client
}
