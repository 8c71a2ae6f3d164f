package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/currency"
	"github.com/fekuna/omnipos-sales-service/internal/currency/dto"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// inverseScale bounds the precision of a rate derived from the reverse pair.
const inverseScale = 16

type rateStore struct {
	repo   currency.Repository
	cache  currency.RateCache
	logger logger.ZapLogger
	now    func() time.Time
}

func NewRateStore(repo currency.Repository, cache currency.RateCache, log logger.ZapLogger) currency.UseCase {
	return &rateStore{
		repo:   repo,
		cache:  cache,
		logger: log,
		now:    time.Now,
	}
}

// Convert resolves the rate for from->to in order: identity, the direct pair
// (latest persisted, then cache), the reverse pair inverted. Cache failures
// never fail the conversion.
func (s *rateStore) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*dto.Conversion, error) {
	from, okFrom := currency.Normalize(from)
	to, okTo := currency.Normalize(to)
	if !okFrom {
		return nil, apperr.Invalid("from", "must be a 3-letter currency code")
	}
	if !okTo {
		return nil, apperr.Invalid("to", "must be a 3-letter currency code")
	}

	conv := &dto.Conversion{From: from, To: to, Amount: amount}

	if from == to {
		conv.Rate = decimal.NewFromInt(1)
		conv.Result = amount.Round(currency.AmountScale)
		conv.Source = "identity"
		return conv, nil
	}

	direct, err := s.lookup(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if direct != nil {
		conv.Rate = direct.Rate
		conv.Source = direct.Source
	} else {
		reverse, err := s.lookup(ctx, to, from)
		if err != nil {
			return nil, err
		}
		if reverse == nil {
			return nil, &apperr.RateNotFoundError{From: from, To: to}
		}
		conv.Rate = decimal.NewFromInt(1).DivRound(reverse.Rate, inverseScale)
		conv.Inverted = true
		conv.Source = reverse.Source
	}

	conv.Result = amount.Mul(conv.Rate).Round(currency.AmountScale)
	return conv, nil
}

func (s *rateStore) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	conv, err := s.Convert(ctx, decimal.NewFromInt(1), from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return conv.Rate, nil
}

// lookup prefers the latest persisted rate so every instance prices with
// the same row. The cache answers only when the store has no row for the
// pair or cannot be read.
func (s *rateStore) lookup(ctx context.Context, from, to string) (*model.CurrencyRate, error) {
	rate, err := s.repo.Latest(ctx, from, to)
	if err == nil && rate != nil {
		s.fill(ctx, rate)
		return rate, nil
	}
	if err != nil {
		s.logger.Warn("Rate store read failed, trying cache", zap.String("from", from), zap.String("to", to), zap.Error(err))
	}

	if s.cache != nil {
		cached, cerr := s.cache.Get(ctx, from, to)
		if cerr != nil {
			s.logger.Warn("Rate cache read failed", zap.String("from", from), zap.String("to", to), zap.Error(cerr))
		} else if cached != nil {
			return cached, nil
		}
	}

	if err != nil {
		return nil, fmt.Errorf("load rate %s/%s: %w", from, to, err)
	}
	return nil, nil
}

func (s *rateStore) fill(ctx context.Context, rate *model.CurrencyRate) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, rate); err != nil {
		s.logger.Warn("Rate cache write failed",
			zap.String("from", rate.FromCurrency), zap.String("to", rate.ToCurrency), zap.Error(err))
	}
}

// SetRate appends a rate observation and refreshes the cache with whatever
// is now the latest row for the pair, which may be an older write when the
// new rate is back-dated.
func (s *rateStore) SetRate(ctx context.Context, input *dto.SetRateInput) (*model.CurrencyRate, error) {
	from, ok := currency.Normalize(input.From)
	if !ok {
		return nil, apperr.Invalid("from_currency", "must be a 3-letter currency code")
	}
	to, ok := currency.Normalize(input.To)
	if !ok {
		return nil, apperr.Invalid("to_currency", "must be a 3-letter currency code")
	}
	if from == to {
		return nil, apperr.Invalid("to_currency", "must differ from from_currency")
	}
	if !input.Rate.IsPositive() {
		return nil, apperr.Invalid("rate", "must be greater than zero")
	}

	now := s.now().UTC()
	effective := now
	if input.Date != nil {
		effective = input.Date.UTC()
	}
	source := input.Source
	if source == "" {
		source = "manual"
	}

	rate := &model.CurrencyRate{
		ID:            uuid.New().String(),
		FromCurrency:  from,
		ToCurrency:    to,
		Rate:          input.Rate,
		EffectiveDate: effective,
		Source:        source,
		CreatedAt:     now,
	}
	if err := s.repo.Create(ctx, rate); err != nil {
		return nil, fmt.Errorf("save rate %s/%s: %w", from, to, err)
	}

	latest, err := s.repo.Latest(ctx, from, to)
	if err != nil {
		s.logger.Warn("Could not reload latest rate", zap.String("from", from), zap.String("to", to), zap.Error(err))
	} else if latest != nil {
		s.fill(ctx, latest)
	}

	s.logger.Info("Currency rate recorded",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("rate", rate.Rate.String()),
		zap.String("source", source))
	return rate, nil
}

func (s *rateStore) ListRates(ctx context.Context, from, to string, limit int) ([]model.CurrencyRate, error) {
	from, okFrom := currency.Normalize(from)
	to, okTo := currency.Normalize(to)
	if !okFrom || !okTo {
		return nil, apperr.Invalid("pair", "from and to must be 3-letter currency codes")
	}
	return s.repo.History(ctx, from, to, limit)
}
