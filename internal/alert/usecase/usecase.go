package usecase

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/alert"
	"github.com/fekuna/omnipos-sales-service/internal/alert/dto"
	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"go.uber.org/zap"
)

type alertUseCase struct {
	repo   alert.Repository
	logger logger.ZapLogger
}

func NewAlertUseCase(repo alert.Repository, log logger.ZapLogger) alert.UseCase {
	return &alertUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *alertUseCase) ListAlerts(ctx context.Context, filters *dto.AlertFilters) ([]model.InventoryAlert, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	return uc.repo.FindAll(ctx, filters)
}

// MarkRead is the only way an alert leaves the unread state. Marking an
// already read alert is a no-op. Alerts of other merchants are not found.
func (uc *alertUseCase) MarkRead(ctx context.Context, merchantID, id string) (*model.InventoryAlert, error) {
	a, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil || a.MerchantID != merchantID {
		return nil, &apperr.AlertNotFoundError{AlertID: id}
	}
	if a.IsRead {
		return a, nil
	}

	if err := uc.repo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	uc.logger.Info("Alert marked read", zap.String("alert_id", id), zap.String("product_id", a.ProductID))

	return uc.repo.FindByID(ctx, id)
}
