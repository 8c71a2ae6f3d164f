package dto

import (
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type SaleFilters struct {
	MerchantID    string
	Status        string
	CustomerID    string
	PaymentMethod string
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	PageSize      int
}

type DeleteSaleResult struct {
	Sale *model.Sale `json:"sale"`
	// RestoredStock maps product id to its stock level after the reversal.
	RestoredStock map[string]int `json:"restored_stock"`
}
