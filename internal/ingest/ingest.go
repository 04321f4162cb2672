// Package ingest turns raw row-source records into Orders for one customer.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"order-lookup/config"
	"order-lookup/internal/matcher"
	"order-lookup/internal/models"
)

// ErrEmptyQuery is returned when the search query has nothing to match on
var ErrEmptyQuery = errors.New("search query is empty")

const idLength = 16

// BuildOrders keeps the rows whose nickname matches query and folds them into Orders.
// Rows that share a stable id become items of one Order. Output follows row order.
func BuildOrders(rows []models.Row, query string, columns config.ColumnMapping) ([]models.Order, error) {
	m := matcher.New(query)
	if m.Empty() {
		return nil, ErrEmptyQuery
	}

	orders := make([]models.Order, 0)
	index := make(map[string]int)

	for _, row := range rows {
		if row == nil {
			continue
		}
		nickname := CellString(row[columns.Nickname])
		if !m.Match(nickname) {
			continue
		}

		id := StableID(row, columns)
		item := buildItem(row, columns)

		if i, ok := index[id]; ok {
			orders[i].Items = append(orders[i].Items, item)
			orders[i].TotalQuantity += item.Quantity
			continue
		}

		index[id] = len(orders)
		orders = append(orders, buildOrder(id, nickname, row, columns, item))
	}

	return orders, nil
}

// StableID derives an order id from the row's content so it survives row reordering.
func StableID(row models.Row, columns config.ColumnMapping) string {
	parts := []string{
		CellString(row[columns.GroupName]),
		CellString(row[columns.Nickname]),
		CellString(row[columns.ItemName]),
		CellString(row[columns.ProductTotal]),
		CellString(row[columns.DepositAmount]),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])[:idLength]
}

func buildItem(row models.Row, columns config.ColumnMapping) models.OrderItem {
	name := strings.TrimSpace(CellString(row[columns.ItemName]))
	if name == "" {
		name = models.DefaultItemName
	}
	return models.OrderItem{
		Name:      name,
		LineTotal: ParseMoney(row[columns.ProductTotal]),
		Quantity:  ParseQuantity(row[columns.Quantity]),
	}
}

func buildOrder(id, nickname string, row models.Row, columns config.ColumnMapping, item models.OrderItem) models.Order {
	productTotal := ParseMoney(row[columns.ProductTotal])
	balanceDue := ParseMoney(row[columns.BalanceDue])
	deposit := ParseMoney(row[columns.DepositAmount])
	if deposit.IsZero() && productTotal.IsPositive() {
		deposit = productTotal.Sub(balanceDue)
	}

	status := models.PaymentStatusPending
	if ParseFlag(row[columns.IsReconciled]) {
		status = models.PaymentStatusPaid
	}

	return models.Order{
		ID:               id,
		Source:           CellString(row[columns.Source]),
		CustomerNickname: nickname,
		GroupName:        CellString(row[columns.GroupName]),
		Items:            []models.OrderItem{item},
		TotalQuantity:    item.Quantity,
		ProductTotal:     productTotal,
		DepositAmount:    deposit,
		BalanceDue:       balanceDue,
		PaymentStatus:    status,
		LogisticsStatus:  strings.TrimSpace(CellString(row[columns.LogisticsStatus])),
		IsShipped:        ParseFlag(row[columns.IsShipped]),
		PaymentMethod:    CellString(row[columns.PaymentMethod]),
		ShippingDate:     CellString(row[columns.ShippingDate]),
		ArrivalDate:      CellString(row[columns.ArrivalDate]),
	}
}
