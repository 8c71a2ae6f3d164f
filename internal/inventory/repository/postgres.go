package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	movementColumns = `id, merchant_id, product_id, quantity_change, quantity_before, quantity_after,
    reference_type, reference_id, notes, created_by, created_at`
	adjustmentColumns = `id, merchant_id, product_id, location_id, type, quantity, reason, created_by, created_at`
	lowStockColumns   = `id, merchant_id, sku, barcode, name, description, price, cost, currency,
    stock, min_stock, max_stock, is_active, created_at, updated_at`
)

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ReserveAndCommit(ctx context.Context, productID string, delta int, ref dto.MovementRef) (int, error) {
	if delta == 0 {
		return 0, apperr.Invalid("quantity", "stock change must not be zero")
	}

	now := time.Now().UTC()

	// Conditional update: the guard and the write are one statement, so two
	// concurrent decrements can never both pass the check. In PostgreSQL the
	// row lock is held until the surrounding transaction ends.
	var updated struct {
		Stock      int    `db:"stock"`
		MerchantID string `db:"merchant_id"`
	}
	query := r.DB.Rebind(`
        UPDATE products
        SET stock = stock + ?, updated_at = ?
        WHERE id = ? AND stock + ? >= 0
        RETURNING stock, merchant_id
    `)
	err := sqlx.GetContext(ctx, r.DB, &updated, query, delta, now, productID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, r.rejection(ctx, productID, delta)
	}
	if err != nil {
		return 0, fmt.Errorf("update stock for %s: %w", productID, err)
	}

	movement := &model.StockMovement{
		ID:             uuid.New().String(),
		MerchantID:     updated.MerchantID,
		ProductID:      productID,
		QuantityChange: delta,
		QuantityBefore: updated.Stock - delta,
		QuantityAfter:  updated.Stock,
		ReferenceType:  ref.Type,
		ReferenceID:    ref.ID,
		Notes:          ref.Notes,
		CreatedBy:      ref.CreatedBy,
		CreatedAt:      now,
	}
	if err := r.logMovement(ctx, movement); err != nil {
		return 0, fmt.Errorf("log movement for %s: %w", productID, err)
	}

	return updated.Stock, nil
}

// rejection explains why the conditional update matched no row.
func (r *PGRepository) rejection(ctx context.Context, productID string, delta int) error {
	var current int
	query := r.DB.Rebind(`SELECT stock FROM products WHERE id = ?`)
	err := sqlx.GetContext(ctx, r.DB, &current, query, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return &apperr.ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return fmt.Errorf("read stock for %s: %w", productID, err)
	}
	return &apperr.InsufficientStockError{ProductID: productID, Requested: -delta, Available: current}
}

func (r *PGRepository) logMovement(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, merchant_id, product_id, quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :merchant_id, :product_id, :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, r.DB, query, m)
	return err
}

func (r *PGRepository) GetStock(ctx context.Context, merchantID, productID string) (*dto.StockLevel, error) {
	var level dto.StockLevel
	query := r.DB.Rebind(`SELECT id, stock, min_stock, max_stock FROM products WHERE id = ? AND merchant_id = ?`)
	row := r.DB.QueryRowxContext(ctx, query, productID, merchantID)
	err := row.Scan(&level.ProductID, &level.Stock, &level.MinStock, &level.MaxStock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return nil, err
	}
	level.LowStock = level.Stock <= level.MinStock
	return &level, nil
}

func (r *PGRepository) ListLowStock(ctx context.Context, f *dto.LowStockFilters) ([]model.Product, int, error) {
	conditions := []string{"stock <= min_stock", "is_active = :is_active"}
	args := map[string]interface{}{"is_active": true}
	if f.MerchantID != "" {
		conditions = append(conditions, "merchant_id = :merchant_id")
		args["merchant_id"] = f.MerchantID
	}

	items := []model.Product{}
	count, err := database.SelectPage(ctx, r.DB, &items, database.PageQuery{
		Columns:    lowStockColumns,
		Table:      "products",
		Conditions: conditions,
		Args:       args,
		OrderBy:    "stock ASC, name ASC",
		Page:       f.Page,
		PageSize:   f.PageSize,
	})
	return items, count, err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.MerchantID != "" {
		conditions = append(conditions, "merchant_id = :merchant_id")
		args["merchant_id"] = f.MerchantID
	}
	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.ReferenceType != "" {
		conditions = append(conditions, "reference_type = :reference_type")
		args["reference_type"] = f.ReferenceType
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = f.StartDate.UTC()
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = f.EndDate.UTC()
	}

	items := []model.StockMovement{}
	count, err := database.SelectPage(ctx, r.DB, &items, database.PageQuery{
		Columns:    movementColumns,
		Table:      "stock_movements",
		Conditions: conditions,
		Args:       args,
		OrderBy:    "created_at DESC, id",
		Page:       f.Page,
		PageSize:   f.PageSize,
	})
	return items, count, err
}

func (r *PGRepository) CreateAdjustment(ctx context.Context, adj *model.StockAdjustment) error {
	query := `
        INSERT INTO stock_adjustments (
            id, merchant_id, product_id, location_id, type, quantity, reason, created_by, created_at
        )
        VALUES (
            :id, :merchant_id, :product_id, :location_id, :type, :quantity, :reason, :created_by, :created_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, r.DB, query, adj)
	return err
}

func (r *PGRepository) ListAdjustments(ctx context.Context, f *dto.AdjustmentFilters) ([]model.StockAdjustment, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.MerchantID != "" {
		conditions = append(conditions, "merchant_id = :merchant_id")
		args["merchant_id"] = f.MerchantID
	}
	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.Type != "" {
		conditions = append(conditions, "type = :type")
		args["type"] = f.Type
	}

	items := []model.StockAdjustment{}
	count, err := database.SelectPage(ctx, r.DB, &items, database.PageQuery{
		Columns:    adjustmentColumns,
		Table:      "stock_adjustments",
		Conditions: conditions,
		Args:       args,
		OrderBy:    "created_at DESC, id",
		Page:       f.Page,
		PageSize:   f.PageSize,
	})
	return items, count, err
}
