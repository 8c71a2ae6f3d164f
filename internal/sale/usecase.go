package sale

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
)

type UseCase interface {
	CreateSale(ctx context.Context, input *dto.CreateSaleInput) (*model.Sale, error)
	GetSale(ctx context.Context, merchantID, id string) (*model.Sale, error)
	ListSales(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error)
	UpdateSale(ctx context.Context, input *dto.UpdateSaleInput) (*model.Sale, error)
	DeleteSale(ctx context.Context, merchantID, id string) (*dto.DeleteSaleResult, error)
}
