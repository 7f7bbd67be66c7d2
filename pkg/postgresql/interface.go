package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=mock

// RowsInterface is the part of pgx.Rows the repositories iterate with.
type RowsInterface interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

// RowsWrapper adapts pgx.Rows to RowsInterface.
type RowsWrapper struct {
	rows pgx.Rows
}

func NewRowsWrapper(rows pgx.Rows) RowsInterface {
	return &RowsWrapper{rows: rows}
}

func (r *RowsWrapper) Next() bool {
	return r.rows.Next()
}

func (r *RowsWrapper) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}

func (r *RowsWrapper) Close() {
	r.rows.Close()
}

func (r *RowsWrapper) Err() error {
	return r.rows.Err()
}

// PostgreSQLClient defines the subset of PostgreSQL operations the series
// store and the migration runner rely on.
type PostgreSQLClient interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (RowsInterface, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row

	Begin(ctx context.Context) (pgx.Tx, error)

	Ping(ctx context.Context) error
	Close()
}
