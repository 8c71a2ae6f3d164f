package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type Conversion struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Result   decimal.Decimal `json:"result"`
	Rate     decimal.Decimal `json:"rate"`
	Inverted bool            `json:"inverted"` // rate derived from the reverse pair
	Source   string          `json:"source"`
}

type SetRateInput struct {
	From   string
	To     string
	Rate   decimal.Decimal
	Date   *time.Time // defaults to now
	Source string
}

// SetRateRequest is the HTTP body for POST /currency/rates.
type SetRateRequest struct {
	FromCurrency  string          `json:"from_currency" binding:"required,len=3"`
	ToCurrency    string          `json:"to_currency" binding:"required,len=3"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate *time.Time      `json:"effective_date"`
	Source        string          `json:"source" binding:"max=64"`
}

// RateSyncedEvent is consumed from the rate feed topic.
type RateSyncedEvent struct {
	EventType string            `json:"event_type"`
	Payload   RateSyncedPayload `json:"payload"`
	Timestamp time.Time         `json:"timestamp"`
}

type RateSyncedPayload struct {
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate *time.Time      `json:"effective_date"`
	Source        string          `json:"source"`
}
