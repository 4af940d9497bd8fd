package redis

import (
	"context"
	"fmt"

	"github.com/mossy-p/arshare/config"
	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis connection used for peer discovery.
type Client struct {
	*redis.Client
}

// Connect opens a Redis client and checks it with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{Client: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// IsNil reports whether err is the Redis "key does not exist" reply.
func IsNil(err error) bool {
	return err == redis.Nil
}
