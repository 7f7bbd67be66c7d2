package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/muhammadchandra19/price-rollup/pkg/errors"
)

type txContextKey struct{}

// GetTx returns the transaction WithTx placed in ctx.
func GetTx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx, ok
}

// WithTx runs fn with a context whose Exec, Query and QueryRow calls go
// through one transaction. It commits when fn returns nil.
func WithTx(ctx context.Context, db PostgreSQLClient, fn func(ctx context.Context) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return errors.NewTracer("failed to begin transaction").Wrap(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.NewTracer("rollback failed after " + err.Error()).Wrap(rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.NewTracer("failed to commit transaction").Wrap(err)
	}
	return nil
}
