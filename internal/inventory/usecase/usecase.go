package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/alert"
	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/notifier"
	"github.com/fekuna/omnipos-sales-service/internal/uow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo      inventory.Repository
	uow       uow.Beginner
	alerts    *alert.Generator
	publisher notifier.Publisher
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewInventoryUseCase(
	repo inventory.Repository,
	u uow.Beginner,
	alerts *alert.Generator,
	publisher notifier.Publisher,
	log logger.ZapLogger,
) inventory.UseCase {
	if publisher == nil {
		publisher = notifier.Nop{}
	}
	return &inventoryUseCase{
		repo:      repo,
		uow:       u,
		alerts:    alerts,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// AdjustStock records a manual adjustment and moves the ledger by the
// matching signed delta in one transaction.
func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*dto.AdjustStockResult, error) {
	if !input.Type.Valid() {
		return nil, apperr.Invalid("type", fmt.Sprintf("unknown adjustment type %q", input.Type))
	}
	if input.Quantity <= 0 {
		return nil, apperr.Invalid("quantity", "must be greater than zero")
	}
	if input.Reason == "" {
		return nil, apperr.Invalid("reason", "is required")
	}

	u, err := uc.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback()

	p, err := u.Products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil || (input.MerchantID != "" && p.MerchantID != input.MerchantID) {
		return nil, &apperr.ProductNotFoundError{ProductID: input.ProductID}
	}

	adj := &model.StockAdjustment{
		ID:         uuid.New().String(),
		MerchantID: p.MerchantID,
		ProductID:  p.ID,
		LocationID: input.LocationID,
		Type:       input.Type,
		Quantity:   input.Quantity,
		Reason:     input.Reason,
		CreatedBy:  input.UserID,
		CreatedAt:  uc.now().UTC(),
	}

	delta := input.Type.Delta(input.Quantity)
	newStock, err := u.Ledger.ReserveAndCommit(ctx, p.ID, delta, dto.MovementRef{
		Type:      model.ReferenceAdjustment,
		ID:        &adj.ID,
		Notes:     fmt.Sprintf("%s: %s", input.Type, input.Reason),
		CreatedBy: input.UserID,
	})
	if err != nil {
		return nil, err
	}
	if err := u.Ledger.CreateAdjustment(ctx, adj); err != nil {
		return nil, fmt.Errorf("create adjustment: %w", err)
	}

	p.Stock = newStock
	created, err := uc.alerts.Evaluate(ctx, u.Alerts, p)
	if err != nil {
		return nil, err
	}

	if err := u.Commit(); err != nil {
		uc.logger.Error("Stock adjustment failed to commit",
			zap.String("product_id", p.ID),
			zap.Int("delta", delta),
			zap.Error(err))
		return nil, &apperr.ConsistencyError{Op: "adjust stock", Deltas: map[string]int{p.ID: delta}, Err: err}
	}

	uc.logger.Info("Stock adjusted",
		zap.String("product_id", p.ID),
		zap.String("type", string(input.Type)),
		zap.Int("delta", delta),
		zap.Int("new_stock", newStock))

	event := model.StockChangeEvent{
		ProductID:   p.ID,
		MerchantID:  p.MerchantID,
		ProductName: p.Name,
		NewStock:    newStock,
		Delta:       delta,
		Reason:      model.ReferenceAdjustment,
		OccurredAt:  uc.now().UTC(),
	}
	if err := uc.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		uc.logger.Warn("Failed to publish stock change", zap.String("product_id", p.ID), zap.Error(err))
	}

	return &dto.AdjustStockResult{Adjustment: adj, NewStock: newStock, Alert: created}, nil
}

func (uc *inventoryUseCase) GetStock(ctx context.Context, merchantID, productID string) (*dto.StockLevel, error) {
	return uc.repo.GetStock(ctx, merchantID, productID)
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, merchantID string, page, pageSize int) ([]model.Product, int, error) {
	page, pageSize = normalizePage(page, pageSize)
	return uc.repo.ListLowStock(ctx, &dto.LowStockFilters{MerchantID: merchantID, Page: page, PageSize: pageSize})
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	filters.Page, filters.PageSize = normalizePage(filters.Page, filters.PageSize)
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *inventoryUseCase) ListAdjustments(ctx context.Context, filters *dto.AdjustmentFilters) ([]model.StockAdjustment, int, error) {
	filters.Page, filters.PageSize = normalizePage(filters.Page, filters.PageSize)
	return uc.repo.ListAdjustments(ctx, filters)
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
