package dto

import "time"

type LowStockFilters struct {
	MerchantID string
	Page       int
	PageSize   int
}

type MovementFilters struct {
	MerchantID    string
	ProductID     string
	ReferenceType string
	ReferenceID   string
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	PageSize      int
}

type AdjustmentFilters struct {
	MerchantID string
	ProductID  string
	Type       string
	Page       int
	PageSize   int
}

type StockLevel struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"min_stock"`
	MaxStock  int    `json:"max_stock"`
	LowStock  bool   `json:"low_stock"`
}
