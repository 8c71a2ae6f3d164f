package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/alert/dto"
	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const alertColumns = `id, merchant_id, product_id, type, message, is_read, created_at, read_at`

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindUnread(ctx context.Context, productID string, alertType model.AlertType) (*model.InventoryAlert, error) {
	var a model.InventoryAlert
	query := r.DB.Rebind(`SELECT ` + alertColumns + ` FROM inventory_alerts
        WHERE product_id = ? AND type = ? AND is_read = ? LIMIT 1`)
	err := sqlx.GetContext(ctx, r.DB, &a, query, productID, alertType, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create relies on the partial unique index over unread (product_id, type)
// to drop a racing duplicate.
func (r *PGRepository) Create(ctx context.Context, a *model.InventoryAlert) (bool, error) {
	query := `
        INSERT INTO inventory_alerts (id, merchant_id, product_id, type, message, is_read, created_at, read_at)
        VALUES (:id, :merchant_id, :product_id, :type, :message, :is_read, :created_at, :read_at)
        ON CONFLICT DO NOTHING
    `
	res, err := sqlx.NamedExecContext(ctx, r.DB, query, a)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.InventoryAlert, error) {
	var a model.InventoryAlert
	query := r.DB.Rebind(`SELECT ` + alertColumns + ` FROM inventory_alerts WHERE id = ?`)
	err := sqlx.GetContext(ctx, r.DB, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.AlertFilters) ([]model.InventoryAlert, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.MerchantID != "" {
		conditions = append(conditions, "merchant_id = :merchant_id")
		args["merchant_id"] = f.MerchantID
	}
	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.Type != "" {
		conditions = append(conditions, "type = :type")
		args["type"] = f.Type
	}
	if f.UnreadOnly {
		conditions = append(conditions, "is_read = :is_read")
		args["is_read"] = false
	}

	items := []model.InventoryAlert{}
	count, err := database.SelectPage(ctx, r.DB, &items, database.PageQuery{
		Columns:    alertColumns,
		Table:      "inventory_alerts",
		Conditions: conditions,
		Args:       args,
		OrderBy:    "created_at DESC, id",
		Page:       f.Page,
		PageSize:   f.PageSize,
	})
	return items, count, err
}

func (r *PGRepository) MarkRead(ctx context.Context, id string) error {
	query := r.DB.Rebind(`UPDATE inventory_alerts SET is_read = ?, read_at = ? WHERE id = ? AND is_read = ?`)
	_, err := r.DB.ExecContext(ctx, query, true, time.Now().UTC(), id, false)
	return err
}
