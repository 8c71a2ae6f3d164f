package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Schema is written in the subset of SQL shared by PostgreSQL and SQLite.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
    id          TEXT PRIMARY KEY,
    merchant_id TEXT NOT NULL,
    sku         TEXT,
    barcode     TEXT,
    name        TEXT NOT NULL,
    description TEXT,
    price       NUMERIC(18,2) NOT NULL,
    cost        NUMERIC(18,2) NOT NULL DEFAULT 0,
    currency    TEXT NOT NULL,
    stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
    min_stock   INTEGER NOT NULL DEFAULT 0,
    max_stock   INTEGER NOT NULL DEFAULT 0,
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS products_merchant_sku_key ON products (merchant_id, sku);

CREATE UNIQUE INDEX IF NOT EXISTS products_merchant_barcode_key ON products (merchant_id, barcode);

CREATE TABLE IF NOT EXISTS sales (
    id              TEXT PRIMARY KEY,
    merchant_id     TEXT NOT NULL,
    invoice_no      TEXT NOT NULL UNIQUE,
    customer_id     TEXT,
    cashier_id      TEXT,
    currency        TEXT NOT NULL,
    total_amount    NUMERIC(18,2) NOT NULL,
    tax_amount      NUMERIC(18,2) NOT NULL,
    discount_amount NUMERIC(18,2) NOT NULL,
    final_amount    NUMERIC(18,2) NOT NULL,
    payment_method  TEXT NOT NULL,
    status          TEXT NOT NULL,
    notes           TEXT,
    created_at      TIMESTAMP NOT NULL,
    updated_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS sales_merchant_created_idx ON sales (merchant_id, created_at);

CREATE TABLE IF NOT EXISTS sale_items (
    id           TEXT PRIMARY KEY,
    sale_id      TEXT NOT NULL REFERENCES sales (id),
    product_id   TEXT NOT NULL REFERENCES products (id),
    product_name TEXT NOT NULL,
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    unit_price   NUMERIC(18,2) NOT NULL,
    total_price  NUMERIC(18,2) NOT NULL,
    created_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS sale_items_sale_idx ON sale_items (sale_id);

CREATE TABLE IF NOT EXISTS stock_movements (
    id              TEXT PRIMARY KEY,
    merchant_id     TEXT NOT NULL,
    product_id      TEXT NOT NULL REFERENCES products (id),
    quantity_change INTEGER NOT NULL,
    quantity_before INTEGER NOT NULL,
    quantity_after  INTEGER NOT NULL,
    reference_type  TEXT NOT NULL,
    reference_id    TEXT,
    notes           TEXT NOT NULL DEFAULT '',
    created_by      TEXT,
    created_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS stock_movements_product_idx ON stock_movements (product_id, created_at);

CREATE TABLE IF NOT EXISTS stock_adjustments (
    id          TEXT PRIMARY KEY,
    merchant_id TEXT NOT NULL,
    product_id  TEXT NOT NULL REFERENCES products (id),
    location_id TEXT,
    type        TEXT NOT NULL,
    quantity    INTEGER NOT NULL CHECK (quantity > 0),
    reason      TEXT NOT NULL,
    created_by  TEXT,
    created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS stock_adjustments_product_idx ON stock_adjustments (product_id, created_at);

CREATE TABLE IF NOT EXISTS inventory_alerts (
    id          TEXT PRIMARY KEY,
    merchant_id TEXT NOT NULL,
    product_id  TEXT NOT NULL REFERENCES products (id),
    type        TEXT NOT NULL,
    message     TEXT NOT NULL,
    is_read     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMP NOT NULL,
    read_at     TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS inventory_alerts_unread_key ON inventory_alerts (product_id, type) WHERE is_read = FALSE;

CREATE TABLE IF NOT EXISTS currency_rates (
    id             TEXT PRIMARY KEY,
    from_currency  TEXT NOT NULL,
    to_currency    TEXT NOT NULL,
    rate           NUMERIC(24,10) NOT NULL CHECK (rate > 0),
    effective_date TIMESTAMP NOT NULL,
    source         TEXT NOT NULL,
    created_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS currency_rates_pair_idx ON currency_rates (from_currency, to_currency, effective_date);
`

// Migrate applies Schema. Every statement is idempotent.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
