package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const shortageSummaryKey = "shortages:summary"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetShortageSummary loads the cached per-supplier shortage summary.
// Returns false when the cache is cold.
func (c *Client) GetShortageSummary(ctx context.Context, dest interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, shortageSummaryKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read shortage summary: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode shortage summary: %w", err)
	}
	return true, nil
}

// SetShortageSummary caches the per-supplier shortage summary with a TTL
func (c *Client) SetShortageSummary(ctx context.Context, summary interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode shortage summary: %w", err)
	}
	return c.rdb.Set(ctx, shortageSummaryKey, raw, ttl).Err()
}

// InvalidateShortageSummary drops the cached summary after any shortage
// mutation
func (c *Client) InvalidateShortageSummary(ctx context.Context) error {
	return c.rdb.Del(ctx, shortageSummaryKey).Err()
}
