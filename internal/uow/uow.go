// Package uow groups the repositories that must change together into one
// database transaction.
package uow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/fekuna/omnipos-sales-service/internal/alert"
	alertRepoPkg "github.com/fekuna/omnipos-sales-service/internal/alert/repository"
	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	invRepoPkg "github.com/fekuna/omnipos-sales-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	prodRepoPkg "github.com/fekuna/omnipos-sales-service/internal/product/repository"
	"github.com/fekuna/omnipos-sales-service/internal/sale"
	saleRepoPkg "github.com/fekuna/omnipos-sales-service/internal/sale/repository"
	"github.com/jmoiron/sqlx"
)

// Beginner starts units of work. Usecases depend on this rather than on a pool.
type Beginner interface {
	Begin(ctx context.Context) (*UnitOfWork, error)
}

// UnitOfWork exposes repositories bound to a single transaction. Nothing is
// visible to other connections until Commit succeeds.
type UnitOfWork struct {
	tx *sqlx.Tx

	Products product.Repository
	Ledger   inventory.Repository
	Alerts   alert.Repository
	Sales    sale.Repository
}

type Factory struct {
	db *sqlx.DB
}

func NewFactory(db *sqlx.DB) *Factory {
	return &Factory{db: db}
}

// Begin opens a transaction tied to ctx: if ctx is cancelled before Commit
// the transaction is rolled back.
func (f *Factory) Begin(ctx context.Context) (*UnitOfWork, error) {
	tx, err := f.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &UnitOfWork{
		tx:       tx,
		Products: prodRepoPkg.NewPGRepository(tx),
		Ledger:   invRepoPkg.NewPGRepository(tx),
		Alerts:   alertRepoPkg.NewPGRepository(tx),
		Sales:    saleRepoPkg.NewPGRepository(tx),
	}, nil
}

func (u *UnitOfWork) Commit() error {
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback is safe to defer: after Commit, or after the context already
// aborted the transaction, it returns nil.
func (u *UnitOfWork) Rollback() error {
	err := u.tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return fmt.Errorf("rollback transaction: %w", err)
}

var savepointName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Savepoint marks a point the transaction can return to without losing
// earlier work. PostgreSQL aborts the whole transaction on any failed
// statement, so retries inside a unit of work must be wrapped in one.
func (u *UnitOfWork) Savepoint(ctx context.Context, name string) error {
	return u.savepointExec(ctx, "SAVEPOINT ", name)
}

func (u *UnitOfWork) RollbackTo(ctx context.Context, name string) error {
	return u.savepointExec(ctx, "ROLLBACK TO SAVEPOINT ", name)
}

func (u *UnitOfWork) Release(ctx context.Context, name string) error {
	return u.savepointExec(ctx, "RELEASE SAVEPOINT ", name)
}

func (u *UnitOfWork) savepointExec(ctx context.Context, stmt, name string) error {
	if !savepointName.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	if _, err := u.tx.ExecContext(ctx, stmt+name); err != nil {
		return fmt.Errorf("%s%s: %w", stmt, name, err)
	}
	return nil
}
