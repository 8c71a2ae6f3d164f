package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/google/uuid"
)

// Condition reports which alert, if any, the product's current stock calls
// for. LOW_STOCK wins when both thresholds are crossed.
func Condition(p *model.Product) (model.AlertType, bool) {
	if p.Stock <= p.MinStock {
		return model.AlertLowStock, true
	}
	if p.HasMaxStock() && p.Stock >= p.MaxStock {
		return model.AlertOverstock, true
	}
	return "", false
}

func message(t model.AlertType, p *model.Product) string {
	if t == model.AlertOverstock {
		return fmt.Sprintf("%s is overstocked: %d units on hand (maximum %d)", p.Name, p.Stock, p.MaxStock)
	}
	return fmt.Sprintf("%s is running low: %d units left (minimum %d)", p.Name, p.Stock, p.MinStock)
}

// Generator turns stock levels into alerts. It never clears or rewrites an
// existing alert; those are only marked read by a user.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Evaluate inspects p, which must carry its post-mutation stock, and records
// an alert through repo unless an unread one of the same type exists. Pass a
// transaction-bound repo so the alert commits with the stock change.
func (g *Generator) Evaluate(ctx context.Context, repo Repository, p *model.Product) (*model.InventoryAlert, error) {
	alertType, ok := Condition(p)
	if !ok {
		return nil, nil
	}

	existing, err := repo.FindUnread(ctx, p.ID, alertType)
	if err != nil {
		return nil, fmt.Errorf("find unread %s alert for %s: %w", alertType, p.ID, err)
	}
	if existing != nil {
		return nil, nil
	}

	a := &model.InventoryAlert{
		ID:         uuid.New().String(),
		MerchantID: p.MerchantID,
		ProductID:  p.ID,
		Type:       alertType,
		Message:    message(alertType, p),
		CreatedAt:  g.now().UTC(),
	}
	created, err := repo.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create %s alert for %s: %w", alertType, p.ID, err)
	}
	if !created {
		return nil, nil
	}
	return a, nil
}
