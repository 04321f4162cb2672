package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"order-lookup/config"
	"order-lookup/internal/models"

	"github.com/shopspring/decimal"
)

var columns = config.DefaultColumnMapping()

func testConfig(ttl time.Duration) *config.Config {
	return &config.Config{
		Sheet:   config.SheetConfig{Backend: config.RowSourceSheet},
		Columns: columns,
		Cache:   config.CacheConfig{RowTTL: ttl},
	}
}

func sheetRow(nick, group, item string, total, deposit, balance int, reconciled, shipped bool, status string) models.Row {
	flag := func(b bool) string {
		if b {
			return "TRUE"
		}
		return "FALSE"
	}
	return models.Row{
		columns.Nickname:        nick,
		columns.GroupName:       group,
		columns.ItemName:        item,
		columns.Quantity:        json.Number("1"),
		columns.ProductTotal:    json.Number(decimal.NewFromInt(int64(total)).String()),
		columns.DepositAmount:   json.Number(decimal.NewFromInt(int64(deposit)).String()),
		columns.BalanceDue:      json.Number(decimal.NewFromInt(int64(balance)).String()),
		columns.IsReconciled:    flag(reconciled),
		columns.IsShipped:       flag(shipped),
		columns.LogisticsStatus: status,
	}
}

type fakeRowSource struct {
	mu    sync.Mutex
	rows  []models.Row
	err   error
	calls int
}

func (f *fakeRowSource) FetchRows(context.Context, string) ([]models.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.rows, f.err
}

func (f *fakeRowSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 10, 3, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testOrder(id string, status models.PaymentStatus, logistics string, shipped bool, total, deposit, balance int64) models.Order {
	return models.Order{
		ID:               id,
		CustomerNickname: "Kaguya",
		GroupName:        "g-" + id,
		Items:            []models.OrderItem{{Name: "item-" + id, LineTotal: decimal.NewFromInt(total), Quantity: 1}},
		TotalQuantity:    1,
		ProductTotal:     decimal.NewFromInt(total),
		DepositAmount:    decimal.NewFromInt(deposit),
		BalanceDue:       decimal.NewFromInt(balance),
		PaymentStatus:    status,
		LogisticsStatus:  logistics,
		IsShipped:        shipped,
	}
}
