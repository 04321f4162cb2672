package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"order-lookup/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedOrders() []models.Order {
	return []models.Order{
		testOrder("d1", models.PaymentStatusPending, "已登記", false, 1000, 400, 600),
		testOrder("d2", models.PaymentStatusPending, "已訂購", false, 500, 200, 300),
		testOrder("b1", models.PaymentStatusPaid, "已抵台", false, 800, 500, 300),
		testOrder("c1", models.PaymentStatusPaid, "已抵台", true, 300, 300, 0),
	}
}

func staticSearch(orders []models.Order) SearchFunc {
	return func(context.Context, string) ([]models.Order, error) {
		return orders, nil
	}
}

func searchedSession(t *testing.T) *Session {
	t.Helper()
	s := NewSessionManager(time.Minute, 100).Create()
	require.NoError(t, s.Search(context.Background(), "Kaguya", staticSearch(mixedOrders())))
	return s
}

func TestSession_SearchPicksDefaultTab(t *testing.T) {
	s := searchedSession(t)

	v := s.View()
	assert.Equal(t, models.TabAwaitingDeposit, v.Tab)
	assert.Equal(t, "Kaguya", v.Query)
	assert.Len(t, v.Orders, 2)
	assert.Equal(t, 4, v.TotalOrders)
	assert.Equal(t, 2, v.TabCounts[models.TabAwaitingDeposit])
	assert.Equal(t, 1, v.TabCounts[models.TabAwaitingBalance])
	assert.Equal(t, 1, v.TabCounts[models.TabCompleted])
	assert.True(t, v.BatchAction)
	assert.True(t, v.Orders[0].DisplayAmount.Equal(decimal.NewFromInt(400)))
}

func TestSession_SearchFailureClearsOrders(t *testing.T) {
	s := searchedSession(t)

	err := s.Search(context.Background(), "Kaguya", func(context.Context, string) ([]models.Order, error) {
		return nil, ErrRowSourceUnavailable
	})
	assert.ErrorIs(t, err, ErrRowSourceUnavailable)

	v := s.View()
	assert.Empty(t, v.Orders)
	assert.Zero(t, v.TotalOrders)
	assert.Equal(t, models.TabAll, v.Tab)
}

func TestSession_NewerSearchSupersedesOlder(t *testing.T) {
	s := NewSessionManager(time.Minute, 100).Create()

	started := make(chan struct{})
	var slowErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowErr = s.Search(context.Background(), "old", func(ctx context.Context, _ string) ([]models.Order, error) {
			close(started)
			<-ctx.Done()
			return []models.Order{testOrder("stale", models.PaymentStatusPending, "", false, 1, 1, 0)}, ctx.Err()
		})
	}()

	<-started
	fresh := []models.Order{testOrder("fresh", models.PaymentStatusPaid, "已抵台", true, 10, 10, 0)}
	require.NoError(t, s.Search(context.Background(), "new", staticSearch(fresh)))
	wg.Wait()

	assert.ErrorIs(t, slowErr, ErrSearchSuperseded)

	v := s.View()
	assert.Equal(t, "new", v.Query)
	require.Len(t, v.Orders, 1)
	assert.Equal(t, "fresh", v.Orders[0].ID)
	assert.Equal(t, models.TabCompleted, v.Tab)
}

func TestSession_SetTabClearsSelectionAndFilters(t *testing.T) {
	s := searchedSession(t)
	require.NoError(t, s.ToggleSelection("d1"))

	s.SetTab(models.TabAll)
	s.ToggleCargoFilter("已抵台")
	s.ToggleDeliveryFilter(models.DeliveryShipped)
	require.NoError(t, s.ToggleSelection("c1"))

	s.SetTab(models.TabAwaitingBalance)
	v := s.View()
	assert.Empty(t, v.SelectedIDs)
	assert.Empty(t, v.CargoFilters)
	assert.Nil(t, v.DeliveryFilter)
}

func TestSession_SetUnknownTabFallsBackToAll(t *testing.T) {
	s := searchedSession(t)
	s.SetTab(models.ViewTab("nope"))
	assert.Equal(t, models.TabAll, s.View().Tab)
}

func TestSession_FiltersOnAllTab(t *testing.T) {
	s := searchedSession(t)
	s.SetTab(models.TabAll)

	s.ToggleCargoFilter("已抵台")
	v := s.View()
	assert.Len(t, v.Orders, 2)
	assert.Equal(t, []string{"已抵台"}, v.CargoFilters)

	s.ToggleDeliveryFilter(models.DeliveryNotShipped)
	v = s.View()
	require.Len(t, v.Orders, 1)
	assert.Equal(t, "b1", v.Orders[0].ID)

	s.ToggleDeliveryFilter(models.DeliveryNotShipped)
	s.ToggleCargoFilter("已抵台")
	v = s.View()
	assert.Len(t, v.Orders, 4)
	assert.Nil(t, v.DeliveryFilter)
	assert.Empty(t, v.CargoFilters)
}

func TestSession_SelectionOnlyCountsVisibleOrders(t *testing.T) {
	s := searchedSession(t)
	s.SetTab(models.TabAll)

	s.ToggleSelectAll()
	assert.Equal(t, 4, s.View().SelectedCount)

	s.ToggleCargoFilter("已登記")
	v := s.View()
	assert.Equal(t, 1, v.SelectedCount)
	assert.Equal(t, []string{"d1"}, v.SelectedIDs)

	s.ToggleCargoFilter("已登記")
	assert.Equal(t, 4, s.View().SelectedCount)
}

func TestSession_ToggleSelectionRequiresVisibleOrder(t *testing.T) {
	s := searchedSession(t)

	err := s.ToggleSelection("c1")
	assert.ErrorIs(t, err, ErrOrderNotVisible)

	require.NoError(t, s.ToggleSelection("d2"))
	v := s.View()
	assert.Equal(t, []string{"d2"}, v.SelectedIDs)
	assert.True(t, v.AmountDue.Equal(decimal.NewFromInt(200)))

	require.NoError(t, s.ToggleSelection("d2"))
	assert.Zero(t, s.View().SelectedCount)
}

func TestSession_ToggleSelectAll(t *testing.T) {
	s := searchedSession(t)

	s.ToggleSelectAll()
	v := s.View()
	assert.True(t, v.AllSelected)
	assert.True(t, v.AmountDue.Equal(decimal.NewFromInt(600)))

	s.ToggleSelectAll()
	v = s.View()
	assert.False(t, v.AllSelected)
	assert.Zero(t, v.SelectedCount)
}

func TestSession_Order(t *testing.T) {
	s := searchedSession(t)

	o, err := s.Order("c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", o.ID)

	_, err = s.Order("zzz")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSessionManager_GetAndExpire(t *testing.T) {
	clock := newFakeClock()
	m := NewSessionManager(time.Minute, 100)
	m.now = clock.Now

	s := m.Create()
	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	clock.Advance(59 * time.Second)
	_, err = m.Get(s.ID)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, m.Len())

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionManager_EvictIdle(t *testing.T) {
	clock := newFakeClock()
	m := NewSessionManager(time.Minute, 100)
	m.now = clock.Now

	idle := m.Create()
	clock.Advance(45 * time.Second)
	active := m.Create()
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, m.EvictIdle())
	_, err := m.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(active.ID)
	assert.NoError(t, err)
}

func TestSessionManager_CapDropsLeastRecentlyUsed(t *testing.T) {
	clock := newFakeClock()
	m := NewSessionManager(time.Hour, 2)
	m.now = clock.Now

	first := m.Create()
	clock.Advance(time.Second)
	second := m.Create()
	clock.Advance(time.Second)
	_, err := m.Get(first.ID)
	require.NoError(t, err)
	clock.Advance(time.Second)

	third := m.Create()
	assert.Equal(t, 2, m.Len())

	_, err = m.Get(second.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(first.ID)
	assert.NoError(t, err)
	_, err = m.Get(third.ID)
	assert.NoError(t, err)
}

func TestSessionManager_RunStopsOnCancel(t *testing.T) {
	m := NewSessionManager(time.Minute, 100)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestSession_EvictionCancelsInFlightSearch(t *testing.T) {
	clock := newFakeClock()
	m := NewSessionManager(time.Minute, 100)
	m.now = clock.Now
	s := m.Create()

	started := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		errc <- s.Search(context.Background(), "q", func(ctx context.Context, _ string) ([]models.Order, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
	}()

	<-started
	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, m.EvictIdle())

	select {
	case err := <-errc:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("search was not cancelled")
	}
}
