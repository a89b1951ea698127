package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devsplug/scoring-engine/internal/domain"
)

type txKey struct{}

// TxFrom returns the transaction stored in ctx, or nil.
func TxFrom(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// Transactor runs functions inside a database transaction. The transaction
// is carried in the context so that repositories and nested WithinTx calls
// join the open one instead of starting their own.
type Transactor struct {
	pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	hookCtx, hooks := domain.WithCommitHooks(ctx)
	if err := fn(context.WithValue(hookCtx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	// Deferred side effects run only once the commit is durable.
	hooks.Run(ctx)
	return nil
}
