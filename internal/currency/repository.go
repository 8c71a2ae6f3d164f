package currency

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, rate *model.CurrencyRate) error
	// Latest returns the row with the newest effective date for the
	// directional pair, or nil, nil.
	Latest(ctx context.Context, from, to string) (*model.CurrencyRate, error)
	// History lists rates for the pair, newest first.
	History(ctx context.Context, from, to string, limit int) ([]model.CurrencyRate, error)
}

// RateCache holds the latest known rate per directional pair. A miss returns
// nil, nil.
type RateCache interface {
	Get(ctx context.Context, from, to string) (*model.CurrencyRate, error)
	Set(ctx context.Context, rate *model.CurrencyRate) error
}
