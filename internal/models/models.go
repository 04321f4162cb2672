package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the reconciliation state of an order
type PaymentStatus string

// Payment statuses
const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// ArrivedMarker is the logistics status fragment meaning goods reached the local holding point.
const ArrivedMarker = "已抵台"

const arrivedMarkerEN = "arrived"

// Logistics statuses offered as cargo filters, in pipeline order.
var CargoStatusOptions = []string{"已登記", "已訂購", "日方發貨", "商品轉送中", ArrivedMarker}

// DefaultItemName is used when a row has no item name.
const DefaultItemName = "代購商品"

// OrderItem is a single line of an order
type OrderItem struct {
	Name      string          `json:"name"`
	LineTotal decimal.Decimal `json:"line_total"`
	Quantity  int             `json:"quantity"`
}

// Order is a customer's purchase record assembled from one or more sheet rows
type Order struct {
	ID               string          `json:"id"`
	Source           string          `json:"source,omitempty"`
	CustomerNickname string          `json:"customer_nickname"`
	GroupName        string          `json:"group_name"`
	Items            []OrderItem     `json:"items"`
	TotalQuantity    int             `json:"total_quantity"`
	ProductTotal     decimal.Decimal `json:"product_total"`
	DepositAmount    decimal.Decimal `json:"deposit_amount"`
	BalanceDue       decimal.Decimal `json:"balance_due"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	LogisticsStatus  string          `json:"logistics_status"`
	IsShipped        bool            `json:"is_shipped"`
	PaymentMethod    string          `json:"payment_method,omitempty"`
	ShippingDate     string          `json:"shipping_date,omitempty"`
	ArrivalDate      string          `json:"arrival_date,omitempty"`
}

// IsPending reports whether the deposit has not been reconciled yet
func (o *Order) IsPending() bool {
	return o.PaymentStatus == PaymentStatusPending
}

// IsPaid reports whether the deposit has been reconciled
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// HasArrived reports whether the order's goods are at the local holding point
func (o *Order) HasArrived() bool {
	return ContainsArrivedMarker(o.LogisticsStatus)
}

// FirstItemName returns the name of the first item, or the default name
func (o *Order) FirstItemName() string {
	if len(o.Items) == 0 {
		return DefaultItemName
	}
	return o.Items[0].Name
}

// ContainsArrivedMarker reports whether a logistics status says the goods have arrived locally.
func ContainsArrivedMarker(status string) bool {
	if strings.Contains(status, ArrivedMarker) {
		return true
	}
	return strings.Contains(strings.ToLower(status), arrivedMarkerEN)
}

// Announcement is a storefront news entry
type Announcement struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Likes       int    `json:"likes"`
	IsImportant bool   `json:"is_important"`
	Liked       bool   `json:"liked"`
}

// Row is one raw record from the row source, keyed by column name.
// Numeric cells are kept as json.Number.
type Row map[string]any
