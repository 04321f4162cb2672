package service

import (
	"context"
	"sync"
	"time"

	"order-lookup/internal/models"
)

// RowSource supplies raw order rows
type RowSource interface {
	FetchRows(ctx context.Context, query string) ([]models.Row, error)
}

// RowCache keeps the full row table for a short while
type RowCache interface {
	GetRows(ctx context.Context) ([]models.Row, bool, error)
	SetRows(ctx context.Context, rows []models.Row, ttl time.Duration) error
}

// MemoryRowCache is an in-process RowCache used when Redis is not configured
type MemoryRowCache struct {
	mu      sync.RWMutex
	rows    []models.Row
	expires time.Time
	now     func() time.Time
}

// NewMemoryRowCache creates an empty in-process cache
func NewMemoryRowCache() *MemoryRowCache {
	return &MemoryRowCache{now: time.Now}
}

// GetRows returns the cached table while it is fresh
func (c *MemoryRowCache) GetRows(_ context.Context) ([]models.Row, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.rows) == 0 || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	return c.rows, true, nil
}

// SetRows stores a non-empty table for ttl
func (c *MemoryRowCache) SetRows(_ context.Context, rows []models.Row, ttl time.Duration) error {
	if len(rows) == 0 || ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows = rows
	c.expires = c.now().Add(ttl)
	return nil
}
