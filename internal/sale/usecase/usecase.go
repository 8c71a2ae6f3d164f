package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/alert"
	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/currency"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	invDto "github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/notifier"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/internal/sale"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	"github.com/fekuna/omnipos-sales-service/internal/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const invoiceSavepoint = "sale_invoice"

type Config struct {
	TaxRate        decimal.Decimal
	BaseCurrency   string
	InvoicePrefix  string
	InvoiceRetries int
}

type saleUseCase struct {
	uow       uow.Beginner
	products  product.Repository
	sales     sale.Repository
	rates     currency.UseCase
	alerts    *alert.Generator
	publisher notifier.Publisher
	cfg       Config
	logger    logger.ZapLogger

	now          func() time.Time
	newInvoiceNo func(time.Time) string
}

// NewSaleUseCase wires the orchestrator. products and sales are used for
// reads outside a unit of work; every write goes through u.
func NewSaleUseCase(
	u uow.Beginner,
	products product.Repository,
	sales sale.Repository,
	rates currency.UseCase,
	alerts *alert.Generator,
	publisher notifier.Publisher,
	cfg Config,
	log logger.ZapLogger,
) sale.UseCase {
	if cfg.InvoicePrefix == "" {
		cfg.InvoicePrefix = "INV"
	}
	if cfg.InvoiceRetries <= 0 {
		cfg.InvoiceRetries = 5
	}
	if publisher == nil {
		publisher = notifier.Nop{}
	}
	uc := &saleUseCase{
		uow:       u,
		products:  products,
		sales:     sales,
		rates:     rates,
		alerts:    alerts,
		publisher: publisher,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
	uc.newInvoiceNo = uc.invoiceNo
	return uc
}

// invoiceNo is PREFIX-YYYYMMDDHHMMSS-XXXXXX with a random suffix.
func (uc *saleUseCase) invoiceNo(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", uc.cfg.InvoicePrefix, t.Format("20060102150405"), suffix)
}

type line struct {
	product  model.Product
	quantity int
}

func (uc *saleUseCase) CreateSale(ctx context.Context, input *dto.CreateSaleInput) (*model.Sale, error) {
	// VALIDATING
	if len(input.Items) == 0 {
		return nil, &apperr.EmptyCartError{}
	}
	if input.Discount.IsNegative() {
		return nil, apperr.Invalid("discount", "must not be negative")
	}
	if !input.PaymentMethod.Valid() {
		return nil, apperr.Invalid("payment_method", fmt.Sprintf("unsupported method %q", input.PaymentMethod))
	}
	saleCurrency := uc.cfg.BaseCurrency
	if input.Currency != "" {
		code, ok := currency.Normalize(input.Currency)
		if !ok {
			return nil, apperr.Invalid("currency", "must be a 3-letter currency code")
		}
		saleCurrency = code
	}

	lines, err := uc.resolveLines(ctx, input)
	if err != nil {
		return nil, err
	}

	// PRICING
	now := uc.now().UTC()
	s := &model.Sale{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID:    input.MerchantID,
		CustomerID:    input.CustomerID,
		CashierID:     input.CashierID,
		Currency:      saleCurrency,
		PaymentMethod: input.PaymentMethod,
		Status:        model.SaleStatusCompleted,
		Notes:         input.Notes,
	}
	if s.MerchantID == "" {
		s.MerchantID = lines[0].product.MerchantID
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		unitPrice, err := uc.unitPrice(ctx, &l.product, saleCurrency)
		if err != nil {
			return nil, err
		}
		lineTotal := currency.RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(l.quantity))))
		subtotal = subtotal.Add(lineTotal)

		s.Items = append(s.Items, model.SaleItem{
			ID:          uuid.New().String(),
			SaleID:      s.ID,
			ProductID:   l.product.ID,
			ProductName: l.product.Name,
			Quantity:    l.quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  lineTotal,
			CreatedAt:   now,
		})
	}
	s.TotalAmount = subtotal
	s.TaxAmount = currency.RoundMoney(subtotal.Mul(uc.cfg.TaxRate))
	s.DiscountAmount = currency.RoundMoney(input.Discount)
	s.FinalAmount = s.TotalAmount.Add(s.TaxAmount).Sub(s.DiscountAmount)

	log := uc.logger.With(zap.String("sale_id", s.ID), zap.String("merchant_id", s.MerchantID))

	// RESERVING_STOCK .. ALERTING run in one unit of work
	u, err := uc.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback()

	// Rows are locked in product id order so two carts holding the same
	// products in different orders cannot deadlock.
	reserveOrder := slices.Clone(lines)
	slices.SortFunc(reserveOrder, func(a, b line) int { return strings.Compare(a.product.ID, b.product.ID) })

	deltas := make(map[string]int, len(lines))
	events := make([]model.StockChangeEvent, 0, len(lines))
	for _, l := range reserveOrder {
		newStock, err := u.Ledger.ReserveAndCommit(ctx, l.product.ID, -l.quantity, invDto.MovementRef{
			Type:      model.ReferenceSale,
			ID:        &s.ID,
			Notes:     "sale",
			CreatedBy: input.CashierID,
		})
		if err != nil {
			return nil, err
		}
		deltas[l.product.ID] = -l.quantity

		touched := l.product
		touched.Stock = newStock
		events = append(events, model.StockChangeEvent{
			ProductID:   touched.ID,
			MerchantID:  touched.MerchantID,
			ProductName: touched.Name,
			NewStock:    newStock,
			Delta:       -l.quantity,
			Reason:      model.ReferenceSale,
		})

		// Evaluate while the row lock is held so concurrent sales cannot
		// both see "no unread alert".
		if _, err := uc.alerts.Evaluate(ctx, u.Alerts, &touched); err != nil {
			return nil, err
		}
	}

	// PERSISTING
	if err := uc.persist(ctx, u, s); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := u.Commit(); err != nil {
		cerr := &apperr.ConsistencyError{Op: "create sale", SaleID: s.ID, Deltas: deltas, Err: err}
		log.Error("Sale transaction failed to commit",
			zap.Any("stock_deltas", deltas),
			zap.Error(err))
		return nil, cerr
	}

	log.Info("Sale created",
		zap.String("invoice_no", s.InvoiceNo),
		zap.String("final_amount", s.FinalAmount.String()),
		zap.Int("items", len(s.Items)))

	// NOTIFYING
	uc.notify(ctx, events)
	return s, nil
}

// resolveLines merges repeated products, checks quantities and loads every
// product. Missing or inactive products are reported as not found.
func (uc *saleUseCase) resolveLines(ctx context.Context, input *dto.CreateSaleInput) ([]line, error) {
	order := []string{}
	qty := map[string]int{}
	for _, item := range input.Items {
		if item.ProductID == "" {
			return nil, apperr.Invalid("product_id", "is required")
		}
		if item.Quantity <= 0 {
			return nil, apperr.Invalid("quantity", fmt.Sprintf("must be positive for product %s", item.ProductID))
		}
		if _, seen := qty[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		qty[item.ProductID] += item.Quantity
	}

	products, err := uc.products.FindByIDs(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]line, 0, len(order))
	for _, id := range order {
		p, ok := byID[id]
		if !ok || !p.IsActive || (input.MerchantID != "" && p.MerchantID != input.MerchantID) {
			return nil, &apperr.ProductNotFoundError{ProductID: id}
		}
		lines = append(lines, line{product: p, quantity: qty[id]})
	}
	return lines, nil
}

func (uc *saleUseCase) unitPrice(ctx context.Context, p *model.Product, saleCurrency string) (decimal.Decimal, error) {
	if p.Currency == "" || strings.EqualFold(p.Currency, saleCurrency) {
		return currency.RoundMoney(p.Price), nil
	}
	conv, err := uc.rates.Convert(ctx, p.Price, p.Currency, saleCurrency)
	if err != nil {
		return decimal.Zero, err
	}
	return currency.RoundMoney(conv.Result), nil
}

// persist inserts the sale and its items. A colliding invoice number is
// regenerated; the savepoint keeps the stock work done so far.
func (uc *saleUseCase) persist(ctx context.Context, u *uow.UnitOfWork, s *model.Sale) error {
	for attempt := 1; ; attempt++ {
		s.InvoiceNo = uc.newInvoiceNo(s.CreatedAt)

		if err := u.Savepoint(ctx, invoiceSavepoint); err != nil {
			return err
		}
		err := u.Sales.Create(ctx, s)
		if err == nil {
			if err := u.Release(ctx, invoiceSavepoint); err != nil {
				return err
			}
			break
		}
		if !database.IsUniqueViolation(err) || attempt >= uc.cfg.InvoiceRetries {
			return fmt.Errorf("insert sale %s: %w", s.ID, err)
		}
		if err := u.RollbackTo(ctx, invoiceSavepoint); err != nil {
			return err
		}
		if err := u.Release(ctx, invoiceSavepoint); err != nil {
			return err
		}
		uc.logger.Warn("Invoice number collision, regenerating",
			zap.String("sale_id", s.ID),
			zap.String("invoice_no", s.InvoiceNo),
			zap.Int("attempt", attempt))
	}

	if err := u.Sales.CreateItems(ctx, s.Items); err != nil {
		return fmt.Errorf("insert items for sale %s: %w", s.ID, err)
	}
	return nil
}

// notify runs after commit. Failures are logged and never surface.
func (uc *saleUseCase) notify(ctx context.Context, events []model.StockChangeEvent) {
	ctx = context.WithoutCancel(ctx)
	now := uc.now().UTC()
	for _, ev := range events {
		ev.OccurredAt = now
		if err := uc.publisher.Publish(ctx, ev); err != nil {
			uc.logger.Warn("Failed to publish stock change",
				zap.String("product_id", ev.ProductID),
				zap.Int("new_stock", ev.NewStock),
				zap.Error(err))
		}
	}
}

func (uc *saleUseCase) GetSale(ctx context.Context, merchantID, id string) (*model.Sale, error) {
	s, err := uc.sales.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &apperr.SaleNotFoundError{SaleID: id}
	}
	return s, nil
}

func (uc *saleUseCase) ListSales(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	return uc.sales.FindAll(ctx, filters)
}

// updateAttempts bounds re-reads when the status keeps changing underneath.
const updateAttempts = 3

// UpdateSale writes only when the status it validated against is still the
// stored one; otherwise the sale is re-read and the transition checked again.
func (uc *saleUseCase) UpdateSale(ctx context.Context, input *dto.UpdateSaleInput) (*model.Sale, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperr.Invalid("status", fmt.Sprintf("unknown status %q", *input.Status))
	}

	for attempt := 1; ; attempt++ {
		s, err := uc.GetSale(ctx, input.MerchantID, input.ID)
		if err != nil {
			return nil, err
		}

		prev := s.Status
		if input.Status != nil && *input.Status != prev {
			if !prev.CanTransitionTo(*input.Status) {
				return nil, &apperr.InvalidTransitionError{From: string(prev), To: string(*input.Status)}
			}
			s.Status = *input.Status
		}
		if input.Notes != nil {
			s.Notes = input.Notes
		}
		s.UpdatedAt = uc.now().UTC()

		updated, err := uc.sales.Update(ctx, s, prev)
		if err != nil {
			return nil, fmt.Errorf("update sale %s: %w", s.ID, err)
		}
		if updated {
			return s, nil
		}
		if attempt >= updateAttempts {
			return nil, fmt.Errorf("update sale %s: status changed concurrently %d times", s.ID, attempt)
		}
		uc.logger.Warn("Sale changed during update, retrying",
			zap.String("sale_id", s.ID),
			zap.String("expected_status", string(prev)),
			zap.Int("attempt", attempt))
	}
}

// DeleteSale reverses every stock decrement of the sale and removes it, all
// in one unit of work.
func (uc *saleUseCase) DeleteSale(ctx context.Context, merchantID, id string) (*dto.DeleteSaleResult, error) {
	u, err := uc.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback()

	s, err := u.Sales.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &apperr.SaleNotFoundError{SaleID: id}
	}

	deltas := map[string]int{}
	order := []string{}
	for _, item := range s.Items {
		if _, seen := deltas[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		deltas[item.ProductID] += item.Quantity
	}
	// Same lock order as CreateSale.
	slices.Sort(order)

	restored := map[string]int{}
	for _, pid := range order {
		newStock, err := u.Ledger.ReserveAndCommit(ctx, pid, deltas[pid], invDto.MovementRef{
			Type:  model.ReferenceSaleReversal,
			ID:    &s.ID,
			Notes: "sale " + s.InvoiceNo + " deleted",
		})
		if err != nil {
			return nil, err
		}
		restored[pid] = newStock
	}

	if err := u.Sales.Delete(ctx, s.ID); err != nil {
		return nil, fmt.Errorf("delete sale %s: %w", s.ID, err)
	}

	events := make([]model.StockChangeEvent, 0, len(order))
	for _, pid := range order {
		p, err := u.Products.FindByID(ctx, pid)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		if _, err := uc.alerts.Evaluate(ctx, u.Alerts, p); err != nil {
			return nil, err
		}
		events = append(events, model.StockChangeEvent{
			ProductID:   p.ID,
			MerchantID:  p.MerchantID,
			ProductName: p.Name,
			NewStock:    p.Stock,
			Delta:       deltas[pid],
			Reason:      model.ReferenceSaleReversal,
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := u.Commit(); err != nil {
		uc.logger.Error("Sale deletion failed to commit",
			zap.String("sale_id", s.ID),
			zap.Any("stock_deltas", deltas),
			zap.Error(err))
		return nil, &apperr.ConsistencyError{Op: "delete sale", SaleID: s.ID, Deltas: deltas, Err: err}
	}

	uc.logger.Info("Sale deleted and stock restored",
		zap.String("sale_id", s.ID),
		zap.String("invoice_no", s.InvoiceNo))

	uc.notify(ctx, events)
	return &dto.DeleteSaleResult{Sale: s, RestoredStock: restored}, nil
}
