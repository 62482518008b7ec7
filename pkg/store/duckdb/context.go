package duckdb

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTransaction makes tx visible to every store call made with the
// returned context, so multi-store writes share one transaction.
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTransaction returns the transaction carried by ctx, or nil when
// the caller did not open one.
func GetTransaction(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}
