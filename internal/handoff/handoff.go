// Package handoff renders the messages and links a customer takes to the
// chat app or the marketplace listing to settle a batch of orders.
package handoff

import (
	"fmt"
	"strconv"
	"strings"

	"order-lookup/config"
	"order-lookup/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind is the payment step a hand-off settles
type Kind string

// Hand-off kinds
const (
	KindDeposit  Kind = "deposit"
	KindShipping Kind = "shipping"
)

var greetings = map[Kind]string{
	KindDeposit:  "您好，我要付款！",
	KindShipping: "您好，我要下單出貨！",
}

// comma grouping for the integer part of amounts
var printer = message.NewPrinter(language.English)

// KindForTab returns the hand-off offered on tab, if any
func KindForTab(tab models.ViewTab) (Kind, bool) {
	switch tab {
	case models.TabAwaitingDeposit:
		return KindDeposit, true
	case models.TabAwaitingBalance:
		return KindShipping, true
	}
	return "", false
}

// Links holds the hand-off destinations
type Links struct {
	ChatURL        string
	MarketplaceURL string
}

// NewLinks builds Links from configuration
func NewLinks(cfg config.LinksConfig) Links {
	return Links{ChatURL: cfg.ChatURL, MarketplaceURL: cfg.MarketplaceURL}
}

// For returns the destination for kind
func (l Links) For(kind Kind) string {
	if kind == KindShipping {
		return l.MarketplaceURL
	}
	return l.ChatURL
}

// FormatAmount renders an amount with thousands separators and at most two fraction digits
func FormatAmount(d decimal.Decimal) string {
	s := d.Round(2).String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	out := sign + groupThousands(intPart)
	if frac != "" {
		out += "." + frac
	}
	return out
}

func groupThousands(digits string) string {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return printer.Sprintf("%d", n)
	}

	var b strings.Builder
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// PaymentMessage renders the chat message for settling orders
func PaymentMessage(kind Kind, orders []models.Order) string {
	if len(orders) == 0 {
		return ""
	}

	greeting, ok := greetings[kind]
	if !ok {
		greeting = greetings[KindDeposit]
	}

	productTotal, depositTotal, balanceTotal := decimal.Zero, decimal.Zero, decimal.Zero
	lines := make([]string, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		productTotal = productTotal.Add(o.ProductTotal)
		depositTotal = depositTotal.Add(o.DepositAmount)
		balanceTotal = balanceTotal.Add(o.BalanceDue)
		lines = append(lines, fmt.Sprintf("%s_%s x%d", o.GroupName, o.FirstItemName(), o.TotalQuantity))
	}

	var b strings.Builder
	b.WriteString(greeting)
	b.WriteString("\n♦️社群暱稱：")
	b.WriteString(orders[0].CustomerNickname)
	b.WriteString("\n\n♦️團名_商品：\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n♦️商品金額：$")
	b.WriteString(FormatAmount(productTotal))
	b.WriteString("\n♦️應付訂金：$")
	b.WriteString(FormatAmount(depositTotal))
	b.WriteString("\n♦️抵台尾款：$")
	b.WriteString(FormatAmount(balanceTotal))
	return b.String()
}

// OrderDetailText renders a single order as plain text for copying
func OrderDetailText(o models.Order) string {
	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		names = append(names, it.Name)
	}

	return strings.Join([]string{
		"社群暱稱: " + o.CustomerNickname,
		"團名: " + o.GroupName,
		"商品: " + strings.Join(names, ", "),
		"總額: " + FormatAmount(o.ProductTotal),
		"已付: " + FormatAmount(o.DepositAmount),
		"餘款: " + FormatAmount(o.BalanceDue),
		"付款方式: " + o.PaymentMethod,
	}, "\n")
}
