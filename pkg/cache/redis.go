package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/exam-scheduler/pkg/config"
)

// Client is a Redis connection scoped to the configured key prefix.
type Client struct {
	*redis.Client
	prefix string
}

// NewRedis connects to Redis and pings it before returning.
func NewRedis(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	client := &Client{Client: rdb, prefix: strings.TrimSuffix(cfg.KeyPrefix, ":")}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.PingContext(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", rdb.Options().Addr, err)
	}

	return client, nil
}

// Key joins parts under the client prefix, e.g. "exam-scheduler:jobs".
func (c *Client) Key(parts ...string) string {
	if c.prefix == "" {
		return strings.Join(parts, ":")
	}
	return c.prefix + ":" + strings.Join(parts, ":")
}

// PingContext lets the client serve as a readiness dependency.
func (c *Client) PingContext(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
