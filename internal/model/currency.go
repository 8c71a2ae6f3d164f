package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyRate is directional: a USD->EUR row says nothing about EUR->USD.
// Rows are never updated; a newer effective date supersedes older ones.
type CurrencyRate struct {
	ID            string          `db:"id" json:"id"`
	FromCurrency  string          `db:"from_currency" json:"from_currency"`
	ToCurrency    string          `db:"to_currency" json:"to_currency"`
	Rate          decimal.Decimal `db:"rate" json:"rate"`
	EffectiveDate time.Time       `db:"effective_date" json:"effective_date"`
	Source        string          `db:"source" json:"source"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
