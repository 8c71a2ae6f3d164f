package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	MerchantID  string
	SKU         string
	Barcode     string
	Name        string
	Description string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	Currency    string
	Stock       int
	MinStock    int
	MaxStock    int
}

// CreateProductRequest is the HTTP body for POST /products.
type CreateProductRequest struct {
	SKU         string          `json:"sku" binding:"max=64"`
	Barcode     string          `json:"barcode" binding:"max=64"`
	Name        string          `json:"name" binding:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	Stock       int             `json:"stock" binding:"gte=0"`
	MinStock    int             `json:"min_stock" binding:"gte=0"`
	MaxStock    int             `json:"max_stock" binding:"gte=0"`
}
