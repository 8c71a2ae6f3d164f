package dto

import "github.com/fekuna/omnipos-sales-service/internal/model"

// MovementRef describes why the ledger moved; it is stored on the movement row.
type MovementRef struct {
	Type      string // sale, sale_reversal, adjustment
	ID        *string
	Notes     string
	CreatedBy *string
}

type AdjustStockInput struct {
	MerchantID string
	ProductID  string
	LocationID *string
	Type       model.AdjustmentType
	Quantity   int
	Reason     string
	UserID     *string
}

// AdjustStockRequest is the HTTP body for POST /inventory/adjustments.
type AdjustStockRequest struct {
	ProductID  string `json:"product_id" binding:"required"`
	LocationID string `json:"location_id"`
	Type       string `json:"type" binding:"required,oneof=ADD REMOVE DAMAGE EXPIRY"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Reason     string `json:"reason" binding:"required,max=500"`
}

type AdjustStockResult struct {
	Adjustment *model.StockAdjustment `json:"adjustment"`
	NewStock   int                    `json:"new_stock"`
	Alert      *model.InventoryAlert  `json:"alert,omitempty"`
}
