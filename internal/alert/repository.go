package alert

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/alert/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type Repository interface {
	// FindUnread returns nil, nil when no unread alert of that type exists.
	FindUnread(ctx context.Context, productID string, alertType model.AlertType) (*model.InventoryAlert, error)
	// Create inserts the alert unless an unread one for the same product and
	// type already exists; created is false in that case.
	Create(ctx context.Context, alert *model.InventoryAlert) (created bool, err error)
	FindByID(ctx context.Context, id string) (*model.InventoryAlert, error)
	FindAll(ctx context.Context, filters *dto.AlertFilters) ([]model.InventoryAlert, int, error)
	MarkRead(ctx context.Context, id string) error
}
