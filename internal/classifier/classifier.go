// Package classifier partitions a customer's orders into fulfillment-stage views and
// aggregates the amount due for a batch selection.
package classifier

import (
	"strings"

	"order-lookup/internal/models"

	"github.com/shopspring/decimal"
)

// Classify returns the orders visible under tab, in input order.
// Cargo and delivery filters only narrow the all tab. An unknown tab behaves as all.
func Classify(orders []models.Order, tab models.ViewTab, cargoFilters []string, delivery *models.DeliveryFilter) []models.Order {
	if !tab.Valid() {
		tab = models.TabAll
	}

	visible := make([]models.Order, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		if !InTab(o, tab) {
			continue
		}
		if tab == models.TabAll && !(matchesCargo(o, cargoFilters) && matchesDelivery(o, delivery)) {
			continue
		}
		visible = append(visible, *o)
	}
	return visible
}

// InTab reports whether o belongs to tab, ignoring secondary filters.
func InTab(o *models.Order, tab models.ViewTab) bool {
	switch tab {
	case models.TabAwaitingDeposit:
		return o.IsPending()
	case models.TabAwaitingBalance:
		return o.IsPaid() && o.HasArrived() && !o.IsShipped
	case models.TabCompleted:
		return o.IsPaid() && o.HasArrived() && o.IsShipped
	default:
		return true
	}
}

func matchesCargo(o *models.Order, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	if o.LogisticsStatus == "" {
		return false
	}
	for _, f := range filters {
		if f != "" && strings.Contains(o.LogisticsStatus, f) {
			return true
		}
	}
	return false
}

func matchesDelivery(o *models.Order, f *models.DeliveryFilter) bool {
	if f == nil {
		return true
	}
	switch *f {
	case models.DeliveryShipped:
		return o.IsShipped
	case models.DeliveryNotShipped:
		return !o.IsShipped
	}
	return true
}

// DefaultTab picks the tab to open after a search: the earliest stage that has work in it.
func DefaultTab(orders []models.Order) models.ViewTab {
	for _, tab := range []models.ViewTab{models.TabAwaitingDeposit, models.TabAwaitingBalance, models.TabCompleted} {
		for i := range orders {
			if InTab(&orders[i], tab) {
				return tab
			}
		}
	}
	return models.TabAll
}

// CountByTab returns how many orders fall in each tab without secondary filters.
func CountByTab(orders []models.Order) map[models.ViewTab]int {
	counts := make(map[models.ViewTab]int, len(models.Tabs))
	for _, tab := range models.Tabs {
		counts[tab] = 0
	}
	for i := range orders {
		for _, tab := range models.Tabs {
			if InTab(&orders[i], tab) {
				counts[tab]++
			}
		}
	}
	return counts
}

// BatchActionAvailable reports whether tab offers a batch payment action.
func BatchActionAvailable(tab models.ViewTab) bool {
	return tab == models.TabAwaitingDeposit || tab == models.TabAwaitingBalance
}

// DisplayAmount is the headline amount shown for o under tab.
func DisplayAmount(o *models.Order, tab models.ViewTab) decimal.Decimal {
	switch tab {
	case models.TabAwaitingDeposit:
		return o.DepositAmount
	case models.TabAwaitingBalance:
		return o.BalanceDue
	default:
		return o.ProductTotal
	}
}
