package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/alert"
	alertDto "github.com/fekuna/omnipos-sales-service/internal/alert/dto"
	alertRepoPkg "github.com/fekuna/omnipos-sales-service/internal/alert/repository"
	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	curCache "github.com/fekuna/omnipos-sales-service/internal/currency/cache"
	curDto "github.com/fekuna/omnipos-sales-service/internal/currency/dto"
	curRepoPkg "github.com/fekuna/omnipos-sales-service/internal/currency/repository"
	curUCPkg "github.com/fekuna/omnipos-sales-service/internal/currency/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/notifier"
	prodRepoPkg "github.com/fekuna/omnipos-sales-service/internal/product/repository"
	"github.com/fekuna/omnipos-sales-service/internal/sale"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	saleRepoPkg "github.com/fekuna/omnipos-sales-service/internal/sale/repository"
	"github.com/fekuna/omnipos-sales-service/internal/uow"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event model.StockChangeEvent) error {
	return m.Called(ctx, event).Error(0)
}

type SaleUseCaseTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *sqlx.DB
	products *prodRepoPkg.PGRepository
	alerts   *alertRepoPkg.PGRepository
	rates    *curRepoPkg.PGRepository
	hub      *notifier.Hub
	events   <-chan model.StockChangeEvent
	uc       *saleUseCase
}

func TestSaleUseCaseSuite(t *testing.T) {
	suite.Run(t, new(SaleUseCaseTestSuite))
}

func (s *SaleUseCaseTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = database.NewTestDB(s.T())
	s.products = prodRepoPkg.NewPGRepository(s.db)
	s.alerts = alertRepoPkg.NewPGRepository(s.db)
	s.rates = curRepoPkg.NewPGRepository(s.db)

	s.hub = notifier.NewHub()
	var cancel func()
	s.events, cancel = s.hub.Subscribe(64)
	s.T().Cleanup(func() {
		cancel()
		s.hub.Close()
	})

	s.uc = s.newUseCase(s.hub)
}

func (s *SaleUseCaseTestSuite) newUseCase(pub notifier.Publisher) *saleUseCase {
	return NewSaleUseCase(
		uow.NewFactory(s.db),
		s.products,
		saleRepoPkg.NewPGRepository(s.db),
		curUCPkg.NewRateStore(s.rates, curCache.NewMemoryRateCache(0), logger.NewNop()),
		alert.NewGenerator(),
		pub,
		Config{TaxRate: decimal.RequireFromString("0.08"), BaseCurrency: "USD", InvoicePrefix: "INV", InvoiceRetries: 3},
		logger.NewNop(),
	).(*saleUseCase)
}

func (s *SaleUseCaseTestSuite) seed(id, price string, stock, minStock int) {
	s.seedWith(&model.Product{
		BaseModel:  model.BaseModel{ID: id},
		MerchantID: "m1",
		Name:       "Product " + id,
		Price:      decimal.RequireFromString(price),
		Currency:   "USD",
		Stock:      stock,
		MinStock:   minStock,
		IsActive:   true,
	})
}

func (s *SaleUseCaseTestSuite) seedWith(p *model.Product) {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.SKU == nil {
		sku := "SKU-" + p.ID
		p.SKU = &sku
	}
	s.Require().NoError(s.products.Create(s.ctx, p))
}

func (s *SaleUseCaseTestSuite) stock(id string) int {
	p, err := s.products.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(p)
	return p.Stock
}

func (s *SaleUseCaseTestSuite) saleCount() int {
	var n int
	s.Require().NoError(s.db.Get(&n, `SELECT count(*) FROM sales`))
	return n
}

func (s *SaleUseCaseTestSuite) unreadAlerts(productID string) []model.InventoryAlert {
	alerts, _, err := s.alerts.FindAll(s.ctx, &alertDto.AlertFilters{ProductID: productID, UnreadOnly: true, Page: 1, PageSize: 50})
	s.Require().NoError(err)
	return alerts
}

func sell(items ...dto.SaleItemInput) *dto.CreateSaleInput {
	return &dto.CreateSaleInput{MerchantID: "m1", Items: items, PaymentMethod: model.PaymentCash}
}

func item(productID string, qty int) dto.SaleItemInput {
	return dto.SaleItemInput{ProductID: productID, Quantity: qty}
}

func (s *SaleUseCaseTestSuite) TestLowStockAlertAfterSale() {
	s.seed("p", "10", 5, 3)

	sale, err := s.uc.CreateSale(s.ctx, sell(item("p", 3)))
	s.Require().NoError(err)
	s.Equal(model.SaleStatusCompleted, sale.Status)
	s.Equal(2, s.stock("p"))

	alerts := s.unreadAlerts("p")
	s.Require().Len(alerts, 1)
	s.Equal(model.AlertLowStock, alerts[0].Type)
	s.Contains(alerts[0].Message, "2")

	ev := <-s.events
	s.Equal("p", ev.ProductID)
	s.Equal(2, ev.NewStock)
	s.Equal(-3, ev.Delta)
}

func (s *SaleUseCaseTestSuite) TestInsufficientStock() {
	s.seed("p", "10", 2, 0)

	_, err := s.uc.CreateSale(s.ctx, sell(item("p", 5)))

	var insufficient *apperr.InsufficientStockError
	s.Require().ErrorAs(err, &insufficient)
	s.Equal(2, insufficient.Available)
	s.Equal(5, insufficient.Requested)
	s.Equal(2, s.stock("p"))
	s.Zero(s.saleCount())
}

func (s *SaleUseCaseTestSuite) TestTotals() {
	s.seed("a", "10", 10, 0)
	s.seed("b", "5", 10, 0)

	sale, err := s.uc.CreateSale(s.ctx, sell(item("a", 2), item("b", 1)))
	s.Require().NoError(err)
	s.Equal("25", sale.TotalAmount.String())
	s.Equal("2", sale.TaxAmount.String())
	s.True(sale.FinalAmount.Equal(decimal.RequireFromString("27.00")))
	s.Len(sale.Items, 2)

	stored, err := s.uc.GetSale(s.ctx, "m1", sale.ID)
	s.Require().NoError(err)
	s.True(stored.FinalAmount.Equal(decimal.RequireFromString("27")))
	s.Equal(sale.InvoiceNo, stored.InvoiceNo)
	s.Len(stored.Items, 2)
}

func (s *SaleUseCaseTestSuite) TestDiscountApplied() {
	s.seed("a", "10", 10, 0)

	in := sell(item("a", 1))
	in.Discount = decimal.RequireFromString("1.50")
	sale, err := s.uc.CreateSale(s.ctx, in)
	s.Require().NoError(err)
	s.True(sale.FinalAmount.Equal(decimal.RequireFromString("9.30")), sale.FinalAmount.String())

	in.Discount = decimal.RequireFromString("-1")
	_, err = s.uc.CreateSale(s.ctx, in)
	var validation *apperr.ValidationError
	s.ErrorAs(err, &validation)
}

func (s *SaleUseCaseTestSuite) TestForeignCurrencyPricing() {
	s.seed("usd", "10.99", 10, 0)
	_, err := curUCPkg.NewRateStore(s.rates, nil, logger.NewNop()).SetRate(s.ctx, &curDto.SetRateInput{
		From: "USD", To: "EUR", Rate: decimal.RequireFromString("0.90"),
	})
	s.Require().NoError(err)

	in := sell(item("usd", 2))
	in.Currency = "eur"
	sale, err := s.uc.CreateSale(s.ctx, in)
	s.Require().NoError(err)

	s.Equal("EUR", sale.Currency)
	s.Require().Len(sale.Items, 1)
	s.Equal("9.89", sale.Items[0].UnitPrice.StringFixed(2))
	s.Equal("19.78", sale.Items[0].TotalPrice.StringFixed(2))
}

func (s *SaleUseCaseTestSuite) TestMissingRateFailsBeforeStockMoves() {
	s.seed("usd", "10", 10, 0)

	in := sell(item("usd", 1))
	in.Currency = "GBP"
	_, err := s.uc.CreateSale(s.ctx, in)

	var notFound *apperr.RateNotFoundError
	s.Require().ErrorAs(err, &notFound)
	s.Equal(10, s.stock("usd"))
}

func (s *SaleUseCaseTestSuite) TestDeleteRestoresStock() {
	s.seed("c", "4", 10, 0)

	sale, err := s.uc.CreateSale(s.ctx, sell(item("c", 3)))
	s.Require().NoError(err)
	s.Equal(7, s.stock("c"))
	<-s.events

	res, err := s.uc.DeleteSale(s.ctx, "m1", sale.ID)
	s.Require().NoError(err)
	s.Equal(10, res.RestoredStock["c"])
	s.Equal(10, s.stock("c"))
	s.Zero(s.saleCount())

	var items int
	s.Require().NoError(s.db.Get(&items, `SELECT count(*) FROM sale_items`))
	s.Zero(items)

	ev := <-s.events
	s.Equal(model.ReferenceSaleReversal, ev.Reason)
	s.Equal(3, ev.Delta)

	_, err = s.uc.DeleteSale(s.ctx, "m1", sale.ID)
	var notFound *apperr.SaleNotFoundError
	s.ErrorAs(err, &notFound)
}

func (s *SaleUseCaseTestSuite) TestAtomicityAcrossLines() {
	s.seed("a", "1", 10, 0)
	s.seed("b", "1", 10, 0)
	s.seed("c", "1", 1, 0)

	_, err := s.uc.CreateSale(s.ctx, sell(item("a", 2), item("b", 3), item("c", 4)))

	var insufficient *apperr.InsufficientStockError
	s.Require().ErrorAs(err, &insufficient)
	s.Equal("c", insufficient.ProductID)
	s.Equal(10, s.stock("a"))
	s.Equal(10, s.stock("b"))
	s.Equal(1, s.stock("c"))
	s.Zero(s.saleCount())

	var movements int
	s.Require().NoError(s.db.Get(&movements, `SELECT count(*) FROM stock_movements`))
	s.Zero(movements)
}

func (s *SaleUseCaseTestSuite) TestAlertDeduplicatedAcrossSales() {
	s.seed("p", "1", 10, 8)

	for i := 0; i < 3; i++ {
		_, err := s.uc.CreateSale(s.ctx, sell(item("p", 1)))
		s.Require().NoError(err)
	}
	s.Equal(7, s.stock("p"))
	s.Len(s.unreadAlerts("p"), 1)
}

func (s *SaleUseCaseTestSuite) TestValidation() {
	s.seed("p", "1", 10, 0)
	s.seedWith(&model.Product{BaseModel: model.BaseModel{ID: "off"}, MerchantID: "m1", Name: "Off", Price: decimal.NewFromInt(1), Currency: "USD", Stock: 10})
	s.seedWith(&model.Product{BaseModel: model.BaseModel{ID: "other"}, MerchantID: "m2", Name: "Other", Price: decimal.NewFromInt(1), Currency: "USD", Stock: 10, IsActive: true})

	_, err := s.uc.CreateSale(s.ctx, sell())
	var empty *apperr.EmptyCartError
	s.ErrorAs(err, &empty)

	var notFound *apperr.ProductNotFoundError
	_, err = s.uc.CreateSale(s.ctx, sell(item("ghost", 1)))
	s.Require().ErrorAs(err, &notFound)
	s.Equal("ghost", notFound.ProductID)

	_, err = s.uc.CreateSale(s.ctx, sell(item("off", 1)))
	s.ErrorAs(err, &notFound)

	_, err = s.uc.CreateSale(s.ctx, sell(item("other", 1)))
	s.ErrorAs(err, &notFound)

	var validation *apperr.ValidationError
	_, err = s.uc.CreateSale(s.ctx, sell(item("p", 0)))
	s.ErrorAs(err, &validation)

	in := sell(item("p", 1))
	in.PaymentMethod = "BARTER"
	_, err = s.uc.CreateSale(s.ctx, in)
	s.ErrorAs(err, &validation)

	s.Equal(10, s.stock("p"))
	s.Zero(s.saleCount())
}

func (s *SaleUseCaseTestSuite) TestDuplicateLinesMerged() {
	s.seed("p", "2", 10, 0)

	sale, err := s.uc.CreateSale(s.ctx, sell(item("p", 2), item("p", 3)))
	s.Require().NoError(err)
	s.Require().Len(sale.Items, 1)
	s.Equal(5, sale.Items[0].Quantity)
	s.Equal(5, s.stock("p"))
}

func (s *SaleUseCaseTestSuite) TestInvoiceCollisionRegenerates() {
	s.seed("p", "2", 10, 0)

	s.uc.newInvoiceNo = func(time.Time) string { return "INV-DUP" }
	_, err := s.uc.CreateSale(s.ctx, sell(item("p", 1)))
	s.Require().NoError(err)

	numbers := []string{"INV-DUP", "INV-DUP", "INV-NEW"}
	s.uc.newInvoiceNo = func(time.Time) string {
		n := numbers[0]
		numbers = numbers[1:]
		return n
	}
	sale, err := s.uc.CreateSale(s.ctx, sell(item("p", 2)))
	s.Require().NoError(err)
	s.Equal("INV-NEW", sale.InvoiceNo)
	s.Equal(7, s.stock("p"))

	s.uc.newInvoiceNo = func(time.Time) string { return "INV-DUP" }
	_, err = s.uc.CreateSale(s.ctx, sell(item("p", 1)))
	s.Require().Error(err)
	s.Equal(7, s.stock("p"))
	s.Equal(2, s.saleCount())
}

func (s *SaleUseCaseTestSuite) TestPublishFailureDoesNotFailSale() {
	s.seed("p", "2", 10, 0)

	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev model.StockChangeEvent) bool {
		return ev.ProductID == "p" && ev.NewStock == 9
	})).Return(errors.New("socket closed")).Once()

	uc := s.newUseCase(pub)
	_, err := uc.CreateSale(s.ctx, sell(item("p", 1)))
	s.Require().NoError(err)
	s.Equal(9, s.stock("p"))
	pub.AssertExpectations(s.T())
}

func (s *SaleUseCaseTestSuite) TestUpdateSale() {
	s.seed("p", "2", 10, 0)
	sale, err := s.uc.CreateSale(s.ctx, sell(item("p", 1)))
	s.Require().NoError(err)

	notes := "customer returned receipt"
	cancelled := model.SaleStatusCancelled
	updated, err := s.uc.UpdateSale(s.ctx, &dto.UpdateSaleInput{MerchantID: "m1", ID: sale.ID, Status: &cancelled, Notes: &notes})
	s.Require().NoError(err)
	s.Equal(model.SaleStatusCancelled, updated.Status)
	s.Equal(notes, *updated.Notes)
	s.Equal(9, s.stock("p"))

	completed := model.SaleStatusCompleted
	_, err = s.uc.UpdateSale(s.ctx, &dto.UpdateSaleInput{MerchantID: "m1", ID: sale.ID, Status: &completed})
	var transition *apperr.InvalidTransitionError
	s.ErrorAs(err, &transition)

	_, err = s.uc.UpdateSale(s.ctx, &dto.UpdateSaleInput{MerchantID: "m1", ID: "missing", Notes: &notes})
	var notFound *apperr.SaleNotFoundError
	s.ErrorAs(err, &notFound)
}

func (s *SaleUseCaseTestSuite) TestOtherMerchantCannotTouchSale() {
	s.seed("p", "2", 10, 0)
	sale, err := s.uc.CreateSale(s.ctx, sell(item("p", 3)))
	s.Require().NoError(err)
	<-s.events

	var notFound *apperr.SaleNotFoundError

	_, err = s.uc.GetSale(s.ctx, "m2", sale.ID)
	s.ErrorAs(err, &notFound)

	cancelled := model.SaleStatusCancelled
	_, err = s.uc.UpdateSale(s.ctx, &dto.UpdateSaleInput{MerchantID: "m2", ID: sale.ID, Status: &cancelled})
	s.ErrorAs(err, &notFound)

	_, err = s.uc.DeleteSale(s.ctx, "m2", sale.ID)
	s.ErrorAs(err, &notFound)

	_, err = s.uc.GetSale(s.ctx, "", sale.ID)
	s.ErrorAs(err, &notFound)

	stored, err := s.uc.GetSale(s.ctx, "m1", sale.ID)
	s.Require().NoError(err)
	s.Equal(model.SaleStatusCompleted, stored.Status)
	s.Equal(7, s.stock("p"))
	s.Equal(1, s.saleCount())
}

// racingSales changes the stored status right after the usecase reads it,
// the way a concurrent request would.
type racingSales struct {
	sale.Repository
	db    *sqlx.DB
	to    model.SaleStatus
	fired bool
}

func (r *racingSales) FindByID(ctx context.Context, merchantID, id string) (*model.Sale, error) {
	found, err := r.Repository.FindByID(ctx, merchantID, id)
	if err == nil && found != nil && !r.fired {
		r.fired = true
		_, err = r.db.ExecContext(ctx, r.db.Rebind(`UPDATE sales SET status = ? WHERE id = ?`), r.to, id)
	}
	return found, err
}

func (s *SaleUseCaseTestSuite) TestUpdateSaleRechecksConcurrentStatusChange() {
	s.seed("p", "2", 10, 0)
	created, err := s.uc.CreateSale(s.ctx, sell(item("p", 1)))
	s.Require().NoError(err)
	_, err = s.db.Exec(`UPDATE sales SET status = 'PENDING' WHERE id = ?`, created.ID)
	s.Require().NoError(err)

	s.uc.sales = &racingSales{Repository: s.uc.sales, db: s.db, to: model.SaleStatusCancelled}

	completed := model.SaleStatusCompleted
	_, err = s.uc.UpdateSale(s.ctx, &dto.UpdateSaleInput{MerchantID: "m1", ID: created.ID, Status: &completed})

	var transition *apperr.InvalidTransitionError
	s.Require().ErrorAs(err, &transition)
	s.Equal("CANCELLED", transition.From)

	stored, err := s.uc.GetSale(s.ctx, "m1", created.ID)
	s.Require().NoError(err)
	s.Equal(model.SaleStatusCancelled, stored.Status)
}

func (s *SaleUseCaseTestSuite) TestUpdateNotesSurvivesConcurrentStatusChange() {
	s.seed("p", "2", 10, 0)
	created, err := s.uc.CreateSale(s.ctx, sell(item("p", 1)))
	s.Require().NoError(err)

	s.uc.sales = &racingSales{Repository: s.uc.sales, db: s.db, to: model.SaleStatusCancelled}

	notes := "wrapped as gift"
	updated, err := s.uc.UpdateSale(s.ctx, &dto.UpdateSaleInput{MerchantID: "m1", ID: created.ID, Notes: &notes})
	s.Require().NoError(err)
	s.Equal(model.SaleStatusCancelled, updated.Status)
	s.Equal(notes, *updated.Notes)
}

func (s *SaleUseCaseTestSuite) TestListSales() {
	s.seed("p", "2", 10, 0)
	for i := 0; i < 3; i++ {
		_, err := s.uc.CreateSale(s.ctx, sell(item("p", 1)))
		s.Require().NoError(err)
	}

	sales, total, err := s.uc.ListSales(s.ctx, &dto.SaleFilters{MerchantID: "m1", PageSize: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(sales, 2)

	_, total, err = s.uc.ListSales(s.ctx, &dto.SaleFilters{MerchantID: "m2"})
	s.Require().NoError(err)
	s.Zero(total)
}

// The in-memory database serializes transactions on its single connection,
// so this checks the outcome of interleaved callers rather than row-lock
// contention. Lock ordering is covered by the sqlmock tests.
func (s *SaleUseCaseTestSuite) TestConcurrentSalesNeverOversell() {
	s.seed("p", "1", 5, 0)

	var ok, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < 12; i++ {
		g.Go(func() error {
			_, err := s.uc.CreateSale(s.ctx, sell(item("p", 1)))
			var insufficient *apperr.InsufficientStockError
			switch {
			case err == nil:
				ok.Add(1)
			case errors.As(err, &insufficient):
				rejected.Add(1)
			default:
				return fmt.Errorf("unexpected error: %w", err)
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(int32(5), ok.Load())
	s.Equal(int32(7), rejected.Load())
	s.Equal(0, s.stock("p"))
	s.Equal(5, s.saleCount())
}
