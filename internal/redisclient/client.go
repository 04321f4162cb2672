package redisclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"order-lookup/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	rowsKey       = "rows:all"
	likeKeyPrefix = "like"

	eventLedgerTTL = 7 * 24 * time.Hour
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks the connection
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

// NewClientFromRedis wraps an existing redis client
func NewClientFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetRows returns the cached row table. ok is false on a miss.
func (c *Client) GetRows(ctx context.Context) (rows []models.Row, ok bool, err error) {
	data, err := c.rdb.Get(ctx, rowsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached rows: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, false, fmt.Errorf("decode cached rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows, true, nil
}

// SetRows caches the row table. Empty tables are never cached.
func (c *Client) SetRows(ctx context.Context, rows []models.Row, ttl time.Duration) error {
	if len(rows) == 0 || ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	return c.rdb.Set(ctx, rowsKey, data, ttl).Err()
}

// InvalidateRows drops the cached row table
func (c *Client) InvalidateRows(ctx context.Context) error {
	return c.rdb.Del(ctx, rowsKey).Err()
}

// MarkLiked records a visitor's like. It returns false when the visitor already liked it.
func (c *Client) MarkLiked(ctx context.Context, announcementID, visitorID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("%s:%s:%s", likeKeyPrefix, announcementID, visitorID)
	ok, err := c.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark liked: %w", err)
	}
	return ok, nil
}

// HasLiked reports whether a visitor already liked an announcement
func (c *Client) HasLiked(ctx context.Context, announcementID, visitorID string) (bool, error) {
	key := fmt.Sprintf("%s:%s:%s", likeKeyPrefix, announcementID, visitorID)
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsEventProcessed reports whether an event id was already handled
func (c *Client) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", eventID)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// MarkEventProcessed records an event id for a week
func (c *Client) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", eventID), eventType, eventLedgerTTL).Err()
}
