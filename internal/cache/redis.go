package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client caches checkout session ids that have already been reconciled to
// paid. The webhook handler consults it before touching Postgres so hot
// replays short-circuit cheaply; the database uniqueness constraint remains
// the source of truth and any cache failure degrades to the DB path.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

type Config struct {
	Addr     string
	Password string
	TTL      time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: cfg.TTL}, nil
}

func reconciledKey(checkoutID string) string {
	return "reconciled:" + checkoutID
}

// IsReconciled reports whether the checkout id was recently marked paid.
// Errors read as "not cached".
func (c *Client) IsReconciled(ctx context.Context, checkoutID string) bool {
	n, err := c.rdb.Exists(ctx, reconciledKey(checkoutID)).Result()
	return err == nil && n > 0
}

// MarkReconciled records a paid checkout id. Best effort.
func (c *Client) MarkReconciled(ctx context.Context, checkoutID string) error {
	return c.rdb.Set(ctx, reconciledKey(checkoutID), "1", c.ttl).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
