package currency

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/currency/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/shopspring/decimal"
)

type UseCase interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*dto.Conversion, error)
	// Rate resolves the from->to rate through the same chain as Convert.
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
	SetRate(ctx context.Context, input *dto.SetRateInput) (*model.CurrencyRate, error)
	ListRates(ctx context.Context, from, to string, limit int) ([]model.CurrencyRate, error)
}
