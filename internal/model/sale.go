package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

func (s SaleStatus) Valid() bool {
	switch s {
	case SaleStatusPending, SaleStatusCompleted, SaleStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a sale in status s may move to next.
// CANCELLED is terminal.
func (s SaleStatus) CanTransitionTo(next SaleStatus) bool {
	switch s {
	case SaleStatusPending:
		return next == SaleStatusCompleted || next == SaleStatusCancelled
	case SaleStatusCompleted:
		return next == SaleStatusCancelled
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentCard         PaymentMethod = "CARD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMobile       PaymentMethod = "MOBILE"
	PaymentOther        PaymentMethod = "OTHER"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentBankTransfer, PaymentMobile, PaymentOther:
		return true
	}
	return false
}

type Sale struct {
	BaseModel
	MerchantID     string          `db:"merchant_id" json:"merchant_id"`
	InvoiceNo      string          `db:"invoice_no" json:"invoice_no"`
	CustomerID     *string         `db:"customer_id" json:"customer_id"`
	CashierID      *string         `db:"cashier_id" json:"cashier_id"`
	Currency       string          `db:"currency" json:"currency"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	FinalAmount    decimal.Decimal `db:"final_amount" json:"final_amount"`
	PaymentMethod  PaymentMethod   `db:"payment_method" json:"payment_method"`
	Status         SaleStatus      `db:"status" json:"status"`
	Notes          *string         `db:"notes" json:"notes"`
	Items          []SaleItem      `db:"-" json:"items"`
}

// SaleItem is immutable once its sale is persisted.
type SaleItem struct {
	ID          string          `db:"id" json:"id"`
	SaleID      string          `db:"sale_id" json:"sale_id"`
	ProductID   string          `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice  decimal.Decimal `db:"total_price" json:"total_price"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
