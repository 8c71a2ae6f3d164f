package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	"github.com/jmoiron/sqlx"
)

const (
	saleColumns = `id, merchant_id, invoice_no, customer_id, cashier_id, currency, total_amount, tax_amount,
    discount_amount, final_amount, payment_method, status, notes, created_at, updated_at`
	itemColumns = `id, sale_id, product_id, product_name, quantity, unit_price, total_price, created_at`
)

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, s *model.Sale) error {
	query := `
        INSERT INTO sales (
            id, merchant_id, invoice_no, customer_id, cashier_id, currency, total_amount, tax_amount,
            discount_amount, final_amount, payment_method, status, notes, created_at, updated_at
        )
        VALUES (
            :id, :merchant_id, :invoice_no, :customer_id, :cashier_id, :currency, :total_amount, :tax_amount,
            :discount_amount, :final_amount, :payment_method, :status, :notes, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, r.DB, query, s)
	return err
}

func (r *PGRepository) CreateItems(ctx context.Context, items []model.SaleItem) error {
	query := `
        INSERT INTO sale_items (id, sale_id, product_id, product_name, quantity, unit_price, total_price, created_at)
        VALUES (:id, :sale_id, :product_id, :product_name, :quantity, :unit_price, :total_price, :created_at)
    `
	for i := range items {
		if _, err := sqlx.NamedExecContext(ctx, r.DB, query, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, merchantID, id string) (*model.Sale, error) {
	var s model.Sale
	query := r.DB.Rebind(`SELECT ` + saleColumns + ` FROM sales WHERE id = ? AND merchant_id = ?`)
	err := sqlx.GetContext(ctx, r.DB, &s, query, id, merchantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.Items = []model.SaleItem{}
	itemsQuery := r.DB.Rebind(`SELECT ` + itemColumns + ` FROM sale_items WHERE sale_id = ? ORDER BY created_at, id`)
	if err := sqlx.SelectContext(ctx, r.DB, &s.Items, itemsQuery, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.SaleFilters) ([]model.Sale, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.MerchantID != "" {
		conditions = append(conditions, "merchant_id = :merchant_id")
		args["merchant_id"] = f.MerchantID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.CustomerID != "" {
		conditions = append(conditions, "customer_id = :customer_id")
		args["customer_id"] = f.CustomerID
	}
	if f.PaymentMethod != "" {
		conditions = append(conditions, "payment_method = :payment_method")
		args["payment_method"] = f.PaymentMethod
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = f.StartDate.UTC()
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = f.EndDate.UTC()
	}

	sales := []model.Sale{}
	count, err := database.SelectPage(ctx, r.DB, &sales, database.PageQuery{
		Columns:    saleColumns,
		Table:      "sales",
		Conditions: conditions,
		Args:       args,
		OrderBy:    "created_at DESC, id",
		Page:       f.Page,
		PageSize:   f.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return sales, count, nil
}

func (r *PGRepository) Update(ctx context.Context, s *model.Sale, prev model.SaleStatus) (bool, error) {
	query := r.DB.Rebind(`
        UPDATE sales
        SET status = ?,
            notes = ?,
            updated_at = ?
        WHERE id = ? AND merchant_id = ? AND status = ?
    `)
	res, err := r.DB.ExecContext(ctx, query, s.Status, s.Notes, s.UpdatedAt, s.ID, s.MerchantID, prev)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sale_items WHERE sale_id = ?`), id); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sales WHERE id = ?`), id)
	return err
}
