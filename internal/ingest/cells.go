package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxMoneyExponent bounds the decimal exponent of a money cell. Larger values are
// treated as garbage so a cell like "1e20000000" cannot blow up arithmetic.
const maxMoneyExponent = 18

var moneyReplacer = strings.NewReplacer("NT$", "", "$", "", ",", "", " ", "", "\u00a0", "")

// CellString renders a cell as text. Missing cells are empty.
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case json.Number:
		return c.String()
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case bool:
		if c {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(c)
	}
}

// ParseMoney reads a monetary cell. Anything unparseable is zero.
func ParseMoney(v any) decimal.Decimal {
	switch c := v.(type) {
	case nil:
		return decimal.Zero
	case json.Number:
		return parseDecimal(c.String())
	case float64:
		if math.IsNaN(c) || math.IsInf(c, 0) || math.Abs(c) >= 1e18 {
			return decimal.Zero
		}
		return bounded(decimal.NewFromFloat(c))
	case int:
		return decimal.NewFromInt(int64(c))
	case int64:
		return decimal.NewFromInt(c)
	case string:
		return parseDecimal(moneyReplacer.Replace(strings.TrimSpace(c)))
	default:
		return decimal.Zero
	}
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return bounded(d)
}

func bounded(d decimal.Decimal) decimal.Decimal {
	if !MoneyInRange(d) {
		return decimal.Zero
	}
	return d
}

// MoneyInRange reports whether d has an exponent small enough for safe arithmetic.
func MoneyInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp <= maxMoneyExponent && exp >= -maxMoneyExponent
}

// ParseFlag reads a boolean-as-string cell: only TRUE (any case) is true.
func ParseFlag(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return strings.EqualFold(strings.TrimSpace(CellString(v)), "TRUE")
}

// ParseQuantity reads a quantity cell, falling back to 1.
func ParseQuantity(v any) int {
	s := strings.TrimSpace(CellString(v))
	if s == "" {
		return 1
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return 1
		}
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 1 || f > math.MaxInt32 {
		return 1
	}
	return int(f)
}
