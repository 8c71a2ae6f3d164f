package alert

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/alert/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type UseCase interface {
	ListAlerts(ctx context.Context, filters *dto.AlertFilters) ([]model.InventoryAlert, int, error)
	MarkRead(ctx context.Context, merchantID, id string) (*model.InventoryAlert, error)
}
