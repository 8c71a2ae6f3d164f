// Package notifier fans stock-change events out to observers once the
// underlying change has committed. Delivery is best effort.
package notifier

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type Publisher interface {
	Publish(ctx context.Context, event model.StockChangeEvent) error
}

// Multi publishes every event to all wrapped publishers and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event model.StockChangeEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, model.StockChangeEvent) error { return nil }
