package sale

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
)

type Repository interface {
	Create(ctx context.Context, sale *model.Sale) error
	CreateItems(ctx context.Context, items []model.SaleItem) error
	// FindByID loads the merchant's sale with its items; nil, nil when absent
	// or owned by another merchant.
	FindByID(ctx context.Context, merchantID, id string) (*model.Sale, error)
	FindAll(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error)
	// Update writes status and notes only while the stored status is still
	// prev. It reports false when the row changed or is gone.
	Update(ctx context.Context, sale *model.Sale, prev model.SaleStatus) (bool, error)
	// Delete removes the sale and its items.
	Delete(ctx context.Context, id string) error
}
