package model

import "time"

type AdjustmentType string

const (
	AdjustmentAdd    AdjustmentType = "ADD"
	AdjustmentRemove AdjustmentType = "REMOVE"
	AdjustmentDamage AdjustmentType = "DAMAGE"
	AdjustmentExpiry AdjustmentType = "EXPIRY"
)

func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentAdd, AdjustmentRemove, AdjustmentDamage, AdjustmentExpiry:
		return true
	}
	return false
}

// Delta converts an adjustment of quantity q into a signed stock change.
// Only ADD increases stock.
func (t AdjustmentType) Delta(q int) int {
	if t == AdjustmentAdd {
		return q
	}
	return -q
}

// Reference types recorded on stock movements.
const (
	ReferenceSale         = "sale"
	ReferenceSaleReversal = "sale_reversal"
	ReferenceAdjustment   = "adjustment"
)

type StockAdjustment struct {
	ID         string         `db:"id" json:"id"`
	MerchantID string         `db:"merchant_id" json:"merchant_id"`
	ProductID  string         `db:"product_id" json:"product_id"`
	LocationID *string        `db:"location_id" json:"location_id"`
	Type       AdjustmentType `db:"type" json:"type"`
	Quantity   int            `db:"quantity" json:"quantity"`
	Reason     string         `db:"reason" json:"reason"`
	CreatedBy  *string        `db:"created_by" json:"created_by"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// StockMovement is the append-only audit row written for every ledger mutation.
type StockMovement struct {
	ID             string    `db:"id" json:"id"`
	MerchantID     string    `db:"merchant_id" json:"merchant_id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	QuantityChange int       `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int       `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int       `db:"quantity_after" json:"quantity_after"`
	ReferenceType  string    `db:"reference_type" json:"reference_type"`
	ReferenceID    *string   `db:"reference_id" json:"reference_id"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedBy      *string   `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
