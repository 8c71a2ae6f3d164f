package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/alert"
	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	invRepoPkg "github.com/fekuna/omnipos-sales-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/notifier"
	prodRepoPkg "github.com/fekuna/omnipos-sales-service/internal/product/repository"
	"github.com/fekuna/omnipos-sales-service/internal/uow"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InventoryUseCaseTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *sqlx.DB
	products *prodRepoPkg.PGRepository
	events   <-chan model.StockChangeEvent
	uc       *inventoryUseCase
}

func TestInventoryUseCaseSuite(t *testing.T) {
	suite.Run(t, new(InventoryUseCaseTestSuite))
}

func (s *InventoryUseCaseTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = database.NewTestDB(s.T())
	s.products = prodRepoPkg.NewPGRepository(s.db)

	hub := notifier.NewHub()
	var cancel func()
	s.events, cancel = hub.Subscribe(16)
	s.T().Cleanup(func() {
		cancel()
		hub.Close()
	})

	s.uc = NewInventoryUseCase(
		invRepoPkg.NewPGRepository(s.db),
		uow.NewFactory(s.db),
		alert.NewGenerator(),
		hub,
		logger.NewNop(),
	).(*inventoryUseCase)

	now := time.Now().UTC()
	sku := "SKU-1"
	s.Require().NoError(s.products.Create(s.ctx, &model.Product{
		BaseModel:  model.BaseModel{ID: "p1", CreatedAt: now, UpdatedAt: now},
		MerchantID: "m1",
		SKU:        &sku,
		Name:       "Oat Milk",
		Price:      decimal.NewFromInt(4),
		Currency:   "USD",
		Stock:      10,
		MinStock:   3,
		MaxStock:   20,
		IsActive:   true,
	}))
}

func (s *InventoryUseCaseTestSuite) adjust(t model.AdjustmentType, qty int) (*dto.AdjustStockResult, error) {
	return s.uc.AdjustStock(s.ctx, &dto.AdjustStockInput{
		MerchantID: "m1",
		ProductID:  "p1",
		Type:       t,
		Quantity:   qty,
		Reason:     "cycle count",
	})
}

func (s *InventoryUseCaseTestSuite) TestAddIncreasesStock() {
	res, err := s.adjust(model.AdjustmentAdd, 4)
	s.Require().NoError(err)
	s.Equal(14, res.NewStock)
	s.Nil(res.Alert)
	s.Equal(model.AdjustmentAdd, res.Adjustment.Type)

	ev := <-s.events
	s.Equal("p1", ev.ProductID)
	s.Equal(4, ev.Delta)
	s.Equal(model.ReferenceAdjustment, ev.Reason)

	movements, total, err := s.uc.ListMovements(s.ctx, &dto.MovementFilters{ProductID: "p1"})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(10, movements[0].QuantityBefore)
	s.Equal(14, movements[0].QuantityAfter)
	s.Equal("ADD: cycle count", movements[0].Notes)
	s.Require().NotNil(movements[0].ReferenceID)
	s.Equal(res.Adjustment.ID, *movements[0].ReferenceID)
}

func (s *InventoryUseCaseTestSuite) TestRemovalsDecreaseStockAndRaiseLowStock() {
	res, err := s.adjust(model.AdjustmentDamage, 5)
	s.Require().NoError(err)
	s.Equal(5, res.NewStock)
	s.Nil(res.Alert)

	res, err = s.adjust(model.AdjustmentExpiry, 2)
	s.Require().NoError(err)
	s.Equal(3, res.NewStock)
	s.Require().NotNil(res.Alert)
	s.Equal(model.AlertLowStock, res.Alert.Type)

	res, err = s.adjust(model.AdjustmentRemove, 1)
	s.Require().NoError(err)
	s.Equal(2, res.NewStock)
	s.Nil(res.Alert, "unread alert of the same type already exists")

	adjustments, total, err := s.uc.ListAdjustments(s.ctx, &dto.AdjustmentFilters{ProductID: "p1"})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(adjustments, 3)
}

func (s *InventoryUseCaseTestSuite) TestAddPastMaxRaisesOverstock() {
	res, err := s.adjust(model.AdjustmentAdd, 10)
	s.Require().NoError(err)
	s.Equal(20, res.NewStock)
	s.Require().NotNil(res.Alert)
	s.Equal(model.AlertOverstock, res.Alert.Type)
}

func (s *InventoryUseCaseTestSuite) TestRemovingMoreThanOnHandIsRejected() {
	_, err := s.adjust(model.AdjustmentRemove, 11)

	var insufficient *apperr.InsufficientStockError
	s.Require().ErrorAs(err, &insufficient)
	s.Equal(10, insufficient.Available)
	s.Equal(11, insufficient.Requested)

	level, err := s.uc.GetStock(s.ctx, "m1", "p1")
	s.Require().NoError(err)
	s.Equal(10, level.Stock)

	_, total, err := s.uc.ListAdjustments(s.ctx, &dto.AdjustmentFilters{ProductID: "p1"})
	s.Require().NoError(err)
	s.Zero(total)

	select {
	case ev := <-s.events:
		s.Failf("unexpected event", "%+v", ev)
	default:
	}
}

func (s *InventoryUseCaseTestSuite) TestValidation() {
	cases := []struct {
		name  string
		input dto.AdjustStockInput
	}{
		{"unknown type", dto.AdjustStockInput{ProductID: "p1", Type: "LOST", Quantity: 1, Reason: "x"}},
		{"zero quantity", dto.AdjustStockInput{ProductID: "p1", Type: model.AdjustmentAdd, Quantity: 0, Reason: "x"}},
		{"negative quantity", dto.AdjustStockInput{ProductID: "p1", Type: model.AdjustmentAdd, Quantity: -2, Reason: "x"}},
		{"missing reason", dto.AdjustStockInput{ProductID: "p1", Type: model.AdjustmentAdd, Quantity: 1}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.uc.AdjustStock(s.ctx, &tc.input)
			var invalid *apperr.ValidationError
			s.ErrorAs(err, &invalid)
		})
	}
}

func (s *InventoryUseCaseTestSuite) TestUnknownOrForeignProduct() {
	_, err := s.uc.AdjustStock(s.ctx, &dto.AdjustStockInput{ProductID: "ghost", Type: model.AdjustmentAdd, Quantity: 1, Reason: "x"})
	var notFound *apperr.ProductNotFoundError
	s.ErrorAs(err, &notFound)

	_, err = s.uc.AdjustStock(s.ctx, &dto.AdjustStockInput{MerchantID: "m2", ProductID: "p1", Type: model.AdjustmentAdd, Quantity: 1, Reason: "x"})
	s.ErrorAs(err, &notFound)

	_, err = s.uc.GetStock(s.ctx, "m2", "p1")
	s.ErrorAs(err, &notFound)
}

func (s *InventoryUseCaseTestSuite) TestListLowStock() {
	_, err := s.adjust(model.AdjustmentRemove, 8)
	s.Require().NoError(err)

	items, total, err := s.uc.ListLowStock(s.ctx, "m1", 0, 500)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal("p1", items[0].ID)

	level, err := s.uc.GetStock(s.ctx, "m1", "p1")
	s.Require().NoError(err)
	s.True(level.LowStock)
}

func TestNormalizePage(t *testing.T) {
	cases := []struct{ page, size, wantPage, wantSize int }{
		{0, 0, 1, 20},
		{-1, 10, 1, 10},
		{3, 500, 3, 100},
	}
	for _, tc := range cases {
		p, sz := normalizePage(tc.page, tc.size)
		if p != tc.wantPage || sz != tc.wantSize {
			t.Errorf("normalizePage(%d, %d) = %d, %d", tc.page, tc.size, p, sz)
		}
	}
}
