package classifier

import (
	"testing"

	"order-lookup/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(id string, status models.PaymentStatus, logistics string, shipped bool) models.Order {
	return models.Order{
		ID:               id,
		CustomerNickname: "Kaguya",
		PaymentStatus:    status,
		LogisticsStatus:  logistics,
		IsShipped:        shipped,
		TotalQuantity:    1,
	}
}

func ids(orders []models.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func fixture() []models.Order {
	return []models.Order{
		order("pending-registered", models.PaymentStatusPending, "已登記", false),
		order("paid-ordered", models.PaymentStatusPaid, "已訂購", false),
		order("paid-arrived", models.PaymentStatusPaid, "已抵台", false),
		order("paid-arrived-shipped", models.PaymentStatusPaid, "已抵台", true),
		order("pending-arrived-shipped", models.PaymentStatusPending, "已抵台", true),
		order("paid-transit", models.PaymentStatusPaid, "商品轉送中", false),
		order("cancelled", models.PaymentStatusCancelled, "已抵台", false),
	}
}

func TestClassify_Tabs(t *testing.T) {
	orders := fixture()

	tests := []struct {
		tab  models.ViewTab
		want []string
	}{
		{models.TabAwaitingDeposit, []string{"pending-registered", "pending-arrived-shipped"}},
		{models.TabAwaitingBalance, []string{"paid-arrived"}},
		{models.TabCompleted, []string{"paid-arrived-shipped"}},
		{models.TabAll, ids(orders)},
	}

	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Classify(orders, tt.tab, nil, nil)))
		})
	}
}

func TestClassify_NoDoubleClassification(t *testing.T) {
	statuses := []models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusPaid, models.PaymentStatusCancelled}
	logistics := []string{"", "已登記", "已抵台", "arrived locally", "日方發貨"}

	for _, st := range statuses {
		for _, lg := range logistics {
			for _, shipped := range []bool{false, true} {
				o := order("x", st, lg, shipped)
				hits := 0
				for _, tab := range []models.ViewTab{models.TabAwaitingDeposit, models.TabAwaitingBalance, models.TabCompleted} {
					hits += len(Classify([]models.Order{o}, tab, nil, nil))
				}
				assert.LessOrEqual(t, hits, 1, "status=%s logistics=%q shipped=%v", st, lg, shipped)

				if st == models.PaymentStatusPending {
					assert.Empty(t, Classify([]models.Order{o}, models.TabAwaitingBalance, nil, nil))
					assert.Empty(t, Classify([]models.Order{o}, models.TabCompleted, nil, nil))
				}
			}
		}
	}
}

func TestClassify_CargoFiltersAreOR(t *testing.T) {
	orders := fixture()

	got := Classify(orders, models.TabAll, []string{"已登記", "商品轉送中"}, nil)

	assert.Equal(t, []string{"pending-registered", "paid-transit"}, ids(got))
}

func TestClassify_DeliveryFilter(t *testing.T) {
	orders := fixture()
	shipped := models.DeliveryShipped
	notShipped := models.DeliveryNotShipped

	assert.Equal(t, []string{"paid-arrived-shipped", "pending-arrived-shipped"}, ids(Classify(orders, models.TabAll, nil, &shipped)))
	assert.Len(t, Classify(orders, models.TabAll, nil, &notShipped), 5)
}

func TestClassify_FiltersAreConjunctive(t *testing.T) {
	orders := fixture()
	notShipped := models.DeliveryNotShipped

	got := Classify(orders, models.TabAll, []string{"已抵台"}, &notShipped)

	assert.Equal(t, []string{"paid-arrived", "cancelled"}, ids(got))
}

func TestClassify_SecondaryFiltersIgnoredOutsideAll(t *testing.T) {
	orders := fixture()
	shipped := models.DeliveryShipped

	got := Classify(orders, models.TabAwaitingDeposit, []string{"不存在"}, &shipped)

	assert.Equal(t, []string{"pending-registered", "pending-arrived-shipped"}, ids(got))
}

func TestClassify_UnknownTabFallsBackToAll(t *testing.T) {
	orders := fixture()

	assert.Len(t, Classify(orders, models.ViewTab("bogus"), nil, nil), len(orders))
}

func TestClassify_EmptyInput(t *testing.T) {
	assert.Empty(t, Classify(nil, models.TabAll, nil, nil))
}

func TestClassify_EnglishArrivedMarker(t *testing.T) {
	o := order("en", models.PaymentStatusPaid, "Arrived locally", false)

	assert.Len(t, Classify([]models.Order{o}, models.TabAwaitingBalance, nil, nil), 1)
}

func TestDefaultTab(t *testing.T) {
	paidArrived := order("a", models.PaymentStatusPaid, "已抵台", false)
	done := order("b", models.PaymentStatusPaid, "已抵台", true)
	pending := order("c", models.PaymentStatusPending, "", false)
	inTransit := order("d", models.PaymentStatusPaid, "商品轉送中", false)

	assert.Equal(t, models.TabAwaitingDeposit, DefaultTab([]models.Order{done, paidArrived, pending}))
	assert.Equal(t, models.TabAwaitingBalance, DefaultTab([]models.Order{done, paidArrived}))
	assert.Equal(t, models.TabCompleted, DefaultTab([]models.Order{inTransit, done}))
	assert.Equal(t, models.TabAll, DefaultTab([]models.Order{inTransit}))
	assert.Equal(t, models.TabAll, DefaultTab(nil))
}

func TestCountByTab(t *testing.T) {
	counts := CountByTab(fixture())

	assert.Equal(t, 2, counts[models.TabAwaitingDeposit])
	assert.Equal(t, 1, counts[models.TabAwaitingBalance])
	assert.Equal(t, 1, counts[models.TabCompleted])
	assert.Equal(t, 7, counts[models.TabAll])
}

func TestDisplayAmount(t *testing.T) {
	o := models.Order{
		ProductTotal:  decimal.NewFromInt(830),
		DepositAmount: decimal.NewFromInt(730),
		BalanceDue:    decimal.NewFromInt(100),
	}

	require.True(t, DisplayAmount(&o, models.TabAwaitingDeposit).Equal(decimal.NewFromInt(730)))
	require.True(t, DisplayAmount(&o, models.TabAwaitingBalance).Equal(decimal.NewFromInt(100)))
	require.True(t, DisplayAmount(&o, models.TabAll).Equal(decimal.NewFromInt(830)))
}
