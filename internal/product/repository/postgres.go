package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, merchant_id, sku, barcode, name, description, price, cost, currency,
    stock, min_stock, max_stock, is_active, created_at, updated_at`

// PGRepository runs against a pool or a transaction; both satisfy sqlx.ExtContext.
type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, merchant_id, sku, barcode, name, description, price, cost, currency,
            stock, min_stock, max_stock, is_active, created_at, updated_at
        )
        VALUES (
            :id, :merchant_id, :sku, :barcode, :name, :description, :price, :cost, :currency,
            :stock, :min_stock, :max_stock, :is_active, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, r.DB, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := r.DB.Rebind(`SELECT ` + productColumns + ` FROM products WHERE id = ? LIMIT 1`)
	err := sqlx.GetContext(ctx, r.DB, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var products []model.Product
	err = sqlx.SelectContext(ctx, r.DB, &products, r.DB.Rebind(query), args...)
	return products, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.MerchantID != "" {
		conditions = append(conditions, "merchant_id = :merchant_id")
		args["merchant_id"] = f.MerchantID
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(LOWER(name) LIKE :search OR LOWER(sku) LIKE :search OR LOWER(barcode) LIKE :search)")
		args["search"] = "%" + strings.ToLower(f.SearchQuery) + "%"
	}

	orderBy := "created_at DESC"
	if f.SortBy != "" {
		// Whitelist to keep the ORDER BY clause out of user control
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "price":
			orderBy = "price"
		case "stock":
			orderBy = "stock"
		default:
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	products := []model.Product{}
	count, err := database.SelectPage(ctx, r.DB, &products, database.PageQuery{
		Columns:    productColumns,
		Table:      "products",
		Conditions: conditions,
		Args:       args,
		OrderBy:    orderBy,
		Page:       f.Page,
		PageSize:   f.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, merchantID, sku string) (bool, error) {
	var count int
	query := r.DB.Rebind(`SELECT count(*) FROM products WHERE merchant_id = ? AND sku = ?`)
	if err := sqlx.GetContext(ctx, r.DB, &count, query, merchantID, sku); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) IsBarcodeUnique(ctx context.Context, merchantID, barcode string) (bool, error) {
	if barcode == "" {
		return true, nil
	}
	var count int
	query := r.DB.Rebind(`SELECT count(*) FROM products WHERE merchant_id = ? AND barcode = ?`)
	if err := sqlx.GetContext(ctx, r.DB, &count, query, merchantID, barcode); err != nil {
		return false, err
	}
	return count == 0, nil
}
