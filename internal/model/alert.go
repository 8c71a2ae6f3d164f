package model

import "time"

type AlertType string

const (
	AlertLowStock  AlertType = "LOW_STOCK"
	AlertOverstock AlertType = "OVERSTOCK"
)

type InventoryAlert struct {
	ID         string     `db:"id" json:"id"`
	MerchantID string     `db:"merchant_id" json:"merchant_id"`
	ProductID  string     `db:"product_id" json:"product_id"`
	Type       AlertType  `db:"type" json:"type"`
	Message    string     `db:"message" json:"message"`
	IsRead     bool       `db:"is_read" json:"is_read"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ReadAt     *time.Time `db:"read_at" json:"read_at"`
}
