package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// scope marks an open unit of work. sqlTx is nil for non-SQL runners.
type scope struct {
	sqlTx *sql.Tx
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, &scope{sqlTx: tx})
}

// WithScope marks the context as running inside a unit of work that is not
// backed by a SQL transaction (in-memory stores).
func WithScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey, &scope{})
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	s, ok := ctx.Value(txKey).(*scope)
	if !ok || s.sqlTx == nil {
		return nil, false
	}
	return s.sqlTx, true
}

// Active reports whether a unit of work is already open on ctx.
func Active(ctx context.Context) bool {
	_, ok := ctx.Value(txKey).(*scope)
	return ok
}

// Querier is the subset of *sql.DB and *sql.Tx used by stores.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// QuerierFor returns the transaction on ctx when present, otherwise db.
func QuerierFor(ctx context.Context, db *sql.DB) Querier {
	if t, ok := From(ctx); ok {
		return t
	}
	return db
}
