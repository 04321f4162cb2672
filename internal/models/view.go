package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTab is returned when a tab name cannot be parsed
var ErrUnknownTab = errors.New("unknown view tab")

// ErrUnknownDeliveryFilter is returned when a delivery filter name cannot be parsed
var ErrUnknownDeliveryFilter = errors.New("unknown delivery filter")

// ViewTab selects a fulfillment stage
type ViewTab string

// View tabs
const (
	TabAwaitingDeposit ViewTab = "deposit"
	TabAwaitingBalance ViewTab = "balance"
	TabCompleted       ViewTab = "completed"
	TabAll             ViewTab = "all"
)

// Tabs lists every tab in display order
var Tabs = []ViewTab{TabAwaitingDeposit, TabAwaitingBalance, TabCompleted, TabAll}

// Valid reports whether t is a known tab
func (t ViewTab) Valid() bool {
	switch t {
	case TabAwaitingDeposit, TabAwaitingBalance, TabCompleted, TabAll:
		return true
	}
	return false
}

// ParseViewTab parses a tab name
func ParseViewTab(s string) (ViewTab, error) {
	t := ViewTab(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return TabAll, fmt.Errorf("%w: %q", ErrUnknownTab, s)
	}
	return t, nil
}

// DeliveryFilter restricts the all tab by shipment state
type DeliveryFilter string

// Delivery filters
const (
	DeliveryShipped    DeliveryFilter = "shipped"
	DeliveryNotShipped DeliveryFilter = "not_shipped"
)

// ParseDeliveryFilter parses a delivery filter. An empty string means no filter.
func ParseDeliveryFilter(s string) (*DeliveryFilter, error) {
	switch DeliveryFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return nil, nil
	case DeliveryShipped:
		f := DeliveryShipped
		return &f, nil
	case DeliveryNotShipped:
		f := DeliveryNotShipped
		return &f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDeliveryFilter, s)
}
