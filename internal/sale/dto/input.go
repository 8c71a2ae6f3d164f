package dto

import (
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/shopspring/decimal"
)

type SaleItemInput struct {
	ProductID string
	Quantity  int
}

type CreateSaleInput struct {
	MerchantID    string
	CashierID     *string
	CustomerID    *string
	Items         []SaleItemInput
	Discount      decimal.Decimal
	PaymentMethod model.PaymentMethod
	Currency      string // empty means the base currency
	Notes         *string
}

// UpdateSaleInput changes only the mutable fields of a sale. Items and
// monetary totals are fixed once the sale is persisted.
type UpdateSaleInput struct {
	MerchantID string
	ID         string
	Status     *model.SaleStatus
	Notes      *string
}

type SaleItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// CreateSaleRequest is the HTTP body for POST /sales. An empty item list is
// accepted here and rejected by the usecase.
type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items" binding:"dive"`
	Discount      decimal.Decimal   `json:"discount"`
	PaymentMethod string            `json:"payment_method" binding:"required,oneof=CASH CARD BANK_TRANSFER MOBILE OTHER"`
	Currency      string            `json:"currency" binding:"omitempty,len=3"`
	CustomerID    string            `json:"customer_id"`
	Notes         string            `json:"notes" binding:"max=1000"`
}

type UpdateSaleRequest struct {
	Status *string `json:"status" binding:"omitempty,oneof=PENDING COMPLETED CANCELLED"`
	Notes  *string `json:"notes" binding:"omitempty,max=1000"`
}
