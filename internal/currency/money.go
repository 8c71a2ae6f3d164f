package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AmountScale is applied to every converted amount.
	AmountScale = 6
	// MoneyScale is applied to persisted prices and totals.
	MoneyScale = 2
)

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// Normalize upper-cases a currency code and reports whether it looks like an
// ISO 4217 code.
func Normalize(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return code, false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return code, false
		}
	}
	return code, true
}

// CacheKey identifies a directional pair.
func CacheKey(from, to string) string {
	return from + ":" + to
}
