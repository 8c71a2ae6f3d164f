package uow

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(id string) *model.Product {
	now := time.Now().UTC()
	sku := "SKU-" + id
	return &model.Product{
		BaseModel:  model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		MerchantID: "m1",
		SKU:        &sku,
		Name:       "Product " + id,
		Price:      decimal.NewFromInt(1),
		Currency:   "USD",
		IsActive:   true,
	}
}

func count(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT count(*) FROM products`))
	return n
}

func TestCommitAndRollback(t *testing.T) {
	db := database.NewTestDB(t)
	f := NewFactory(db)
	ctx := context.Background()

	u, err := f.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, u.Products.Create(ctx, newProduct("a")))
	require.NoError(t, u.Rollback())
	assert.Zero(t, count(t, db))

	u, err = f.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, u.Products.Create(ctx, newProduct("b")))
	require.NoError(t, u.Commit())
	require.NoError(t, u.Rollback(), "rollback after commit is a no-op")
	assert.Equal(t, 1, count(t, db))
}

func TestSavepointKeepsEarlierWork(t *testing.T) {
	db := database.NewTestDB(t)
	f := NewFactory(db)
	ctx := context.Background()

	u, err := f.Begin(ctx)
	require.NoError(t, err)
	defer u.Rollback()

	require.NoError(t, u.Products.Create(ctx, newProduct("kept")))
	require.NoError(t, u.Savepoint(ctx, "retry_point"))
	require.NoError(t, u.Products.Create(ctx, newProduct("dropped")))
	require.NoError(t, u.RollbackTo(ctx, "retry_point"))
	require.NoError(t, u.Release(ctx, "retry_point"))
	require.NoError(t, u.Commit())

	var ids []string
	require.NoError(t, db.Select(&ids, `SELECT id FROM products`))
	assert.Equal(t, []string{"kept"}, ids)
}

func TestSavepointNameIsValidated(t *testing.T) {
	db := database.NewTestDB(t)
	u, err := NewFactory(db).Begin(context.Background())
	require.NoError(t, err)
	defer u.Rollback()

	for _, name := range []string{"", "1st", "x; DROP TABLE products", "Upper"} {
		assert.ErrorContains(t, u.Savepoint(context.Background(), name), "invalid savepoint name", name)
	}
}
