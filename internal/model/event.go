package model

import "time"

type StockChangeEvent struct {
	ProductID   string    `json:"product_id"`
	MerchantID  string    `json:"merchant_id"`
	ProductName string    `json:"product_name"`
	NewStock    int       `json:"new_stock"`
	Delta       int       `json:"delta"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}
