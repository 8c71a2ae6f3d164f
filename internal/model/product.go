package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	MerchantID  string          `db:"merchant_id" json:"merchant_id"`
	SKU         *string         `db:"sku" json:"sku"`
	Barcode     *string         `db:"barcode" json:"barcode"` // Nullable
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Cost        decimal.Decimal `db:"cost" json:"cost"`
	Currency    string          `db:"currency" json:"currency"`
	Stock       int             `db:"stock" json:"stock"`
	MinStock    int             `db:"min_stock" json:"min_stock"`
	MaxStock    int             `db:"max_stock" json:"max_stock"` // 0 = unbounded
	IsActive    bool            `db:"is_active" json:"is_active"`
}

// HasMaxStock reports whether an upper stock bound is configured.
func (p *Product) HasMaxStock() bool {
	return p.MaxStock > 0
}
