package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	// DBConnKey carries a request-scoped pooled connection.
	DBConnKey contextKey = "db_conn"
	// DBTxKey carries an open transaction. Repositories prefer it over the
	// request connection and the pool.
	DBTxKey contextKey = "db_tx"
	// PoolKey carries the shared pool for code paths that need to begin a
	// transaction without a request connection.
	PoolKey contextKey = "db_pool"
)

// WithPool stores the shared pool in the context.
func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, PoolKey, pool)
}

// WithConn stores a request-scoped connection in the context.
func WithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, DBConnKey, conn)
}

// ConnFromContext retrieves the request-scoped database connection, if any.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// TxFromContext retrieves the open transaction, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// Tx is the commit/rollback surface services need. pgx.Tx satisfies it.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// BeginFunc starts a transaction and returns a context carrying it. Services
// hold one so tests can substitute a stub.
type BeginFunc func(ctx context.Context) (context.Context, Tx, error)

// Begin is the production BeginFunc, backed by WithTx.
func Begin(ctx context.Context) (context.Context, Tx, error) {
	return WithTx(ctx)
}

// WithTx begins a transaction on the request connection (or the pool when no
// connection is bound) and returns a derived context carrying it. The caller
// owns Commit/Rollback; repositories reached through the returned context
// automatically run inside the transaction.
func WithTx(ctx context.Context) (context.Context, pgx.Tx, error) {
	var tx pgx.Tx
	var err error

	if conn := ConnFromContext(ctx); conn != nil {
		tx, err = conn.Begin(ctx)
	} else if pool, ok := ctx.Value(PoolKey).(*pgxpool.Pool); ok && pool != nil {
		tx, err = pool.Begin(ctx)
	} else {
		return ctx, nil, fmt.Errorf("no database connection in context")
	}
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}

	return context.WithValue(ctx, DBTxKey, tx), tx, nil
}
