// Package apperr holds the typed domain errors returned by usecases and their
// mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type EmptyCartError struct{}

func (e *EmptyCartError) Error() string {
	return "sale must contain at least one item"
}

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

type RateNotFoundError struct {
	From string
	To   string
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no exchange rate from %s to %s", e.From, e.To)
}

type SaleNotFoundError struct {
	SaleID string
}

func (e *SaleNotFoundError) Error() string {
	return fmt.Sprintf("sale %s not found", e.SaleID)
}

type AlertNotFoundError struct {
	AlertID string
}

func (e *AlertNotFoundError) Error() string {
	return fmt.Sprintf("alert %s not found", e.AlertID)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change sale status from %s to %s", e.From, e.To)
}

// ConsistencyError means the stock mutations of a unit of work could not be
// committed. Deltas maps product id to the attempted stock change.
type ConsistencyError struct {
	Op     string
	SaleID string
	Deltas map[string]int
	Err    error
}

func (e *ConsistencyError) Error() string {
	ids := make([]string, 0, len(e.Deltas))
	for id := range e.Deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s:%+d", id, e.Deltas[id])
	}
	return fmt.Sprintf("%s %s not committed (stock deltas %s): %v", e.Op, e.SaleID, strings.Join(parts, ","), e.Err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps err onto a response code. Unknown errors are 500.
func HTTPStatus(err error) int {
	var (
		emptyCart    *EmptyCartError
		validation   *ValidationError
		insufficient *InsufficientStockError
		rate         *RateNotFoundError
		transition   *InvalidTransitionError
		product      *ProductNotFoundError
		sale         *SaleNotFoundError
		alert        *AlertNotFoundError
	)
	switch {
	case errors.As(err, &emptyCart), errors.As(err, &validation),
		errors.As(err, &insufficient), errors.As(err, &rate):
		return http.StatusBadRequest
	case errors.As(err, &transition):
		return http.StatusConflict
	case errors.As(err, &product), errors.As(err, &sale), errors.As(err, &alert):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Body renders err as a JSON-ready map carrying the offending identifiers.
// Internal errors are not echoed to the caller.
func Body(err error) map[string]any {
	var (
		insufficient *InsufficientStockError
		product      *ProductNotFoundError
		rate         *RateNotFoundError
		sale         *SaleNotFoundError
		alert        *AlertNotFoundError
		validation   *ValidationError
		transition   *InvalidTransitionError
		emptyCart    *EmptyCartError
	)
	switch {
	case errors.As(err, &insufficient):
		return map[string]any{
			"error":      "insufficient_stock",
			"message":    insufficient.Error(),
			"product_id": insufficient.ProductID,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		}
	case errors.As(err, &product):
		return map[string]any{"error": "product_not_found", "message": product.Error(), "product_id": product.ProductID}
	case errors.As(err, &rate):
		return map[string]any{"error": "rate_not_found", "message": rate.Error(), "from": rate.From, "to": rate.To}
	case errors.As(err, &sale):
		return map[string]any{"error": "sale_not_found", "message": sale.Error(), "sale_id": sale.SaleID}
	case errors.As(err, &alert):
		return map[string]any{"error": "alert_not_found", "message": alert.Error(), "alert_id": alert.AlertID}
	case errors.As(err, &validation):
		return map[string]any{"error": "validation_failed", "message": validation.Error(), "field": validation.Field}
	case errors.As(err, &transition):
		return map[string]any{"error": "invalid_transition", "message": transition.Error(), "from": transition.From, "to": transition.To}
	case errors.As(err, &emptyCart):
		return map[string]any{"error": "empty_cart", "message": emptyCart.Error()}
	default:
		return map[string]any{"error": "internal_error", "message": "internal server error"}
	}
}
