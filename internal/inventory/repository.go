package inventory

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

// Repository is the stock ledger. All stock mutations go through
// ReserveAndCommit; bind it to a transaction to make them atomic with
// other writes.
type Repository interface {
	// ReserveAndCommit adds delta to the product's stock if the result stays
	// non-negative and records a movement. It returns the new stock level,
	// an InsufficientStockError or a ProductNotFoundError.
	ReserveAndCommit(ctx context.Context, productID string, delta int, ref dto.MovementRef) (int, error)
	GetStock(ctx context.Context, merchantID, productID string) (*dto.StockLevel, error)
	ListLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.Product, int, error)

	// Movements / Audit
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)

	// Adjustments
	CreateAdjustment(ctx context.Context, adj *model.StockAdjustment) error
	ListAdjustments(ctx context.Context, filters *dto.AdjustmentFilters) ([]model.StockAdjustment, int, error)
}
