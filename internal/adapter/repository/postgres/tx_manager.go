package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/gowallet/internal/usecase"
)

// querier is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a connection pool able to start transactions.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	db          DB
	lockTimeout time.Duration
}

// NewTxManager creates a new TxManager. A positive lockTimeout bounds how long
// statements in a unit of work wait for row locks.
func NewTxManager(db DB, lockTimeout time.Duration) *TxManager {
	return &TxManager{db: db, lockTimeout: lockTimeout}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if m.lockTimeout > 0 {
		setting := fmt.Sprintf("%dms", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", setting); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction. Deferred constraint violations surface here.
func (t *Tx) Commit(ctx context.Context) error {
	return mapError(t.tx.Commit(ctx), nil)
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}

// conn picks the transaction when one is given and the pool otherwise.
func conn(db querier, tx usecase.Transaction) (querier, error) {
	if tx == nil {
		return db, nil
	}
	pgTx, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("postgres: unexpected transaction type %T", tx)
	}
	return pgTx.tx, nil
}

// mustTx is conn for writes, which always belong to a unit of work.
func mustTx(tx usecase.Transaction) (querier, error) {
	if tx == nil {
		return nil, fmt.Errorf("postgres: write requires a transaction")
	}
	return conn(nil, tx)
}
