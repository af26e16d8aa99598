package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/judyrop/crm/config"
)

// RedisClient holds the Redis client connection
type RedisClient struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient connects to cfg.Addr and pings it before returning.
func NewRedisClient(cfg config.RedisConfig, logger *zap.Logger) (*RedisClient, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address not set")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.String("ping", pong))

	return &RedisClient{client: client, logger: logger}, nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.Warn("closing redis", zap.Error(err))
			return
		}
		c.logger.Info("redis connection closed")
	}
}

// Client returns the underlying *redis.Client instance
func (c *RedisClient) Client() *redis.Client {
	return c.client
}
