package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const rateColumns = `id, from_currency, to_currency, rate, effective_date, source, created_at`

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

// Create appends a rate; existing rows are never updated.
func (r *PGRepository) Create(ctx context.Context, rate *model.CurrencyRate) error {
	query := `
        INSERT INTO currency_rates (id, from_currency, to_currency, rate, effective_date, source, created_at)
        VALUES (:id, :from_currency, :to_currency, :rate, :effective_date, :source, :created_at)
    `
	_, err := sqlx.NamedExecContext(ctx, r.DB, query, rate)
	return err
}

func (r *PGRepository) Latest(ctx context.Context, from, to string) (*model.CurrencyRate, error) {
	var rate model.CurrencyRate
	query := r.DB.Rebind(`SELECT ` + rateColumns + ` FROM currency_rates
        WHERE from_currency = ? AND to_currency = ?
        ORDER BY effective_date DESC, created_at DESC
        LIMIT 1`)
	err := sqlx.GetContext(ctx, r.DB, &rate, query, from, to)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *PGRepository) History(ctx context.Context, from, to string, limit int) ([]model.CurrencyRate, error) {
	if limit <= 0 {
		limit = 50
	}
	rates := []model.CurrencyRate{}
	query := r.DB.Rebind(`SELECT ` + rateColumns + ` FROM currency_rates
        WHERE from_currency = ? AND to_currency = ?
        ORDER BY effective_date DESC, created_at DESC
        LIMIT ?`)
	err := sqlx.SelectContext(ctx, r.DB, &rates, query, from, to, limit)
	return rates, err
}
