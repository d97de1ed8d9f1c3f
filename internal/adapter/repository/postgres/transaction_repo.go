package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

const transactionColumns = `id, actor_id, wallet_id, related_wallet_id, amount, type, description, status, idempotency_key, occurred_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db querier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends a transaction record. A reused idempotency key surfaces as
// domain.ErrDuplicateTransaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.Transaction) error {
	q, err := mustTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID,
		record.ActorID,
		record.WalletID,
		record.RelatedWalletID,
		record.Amount,
		record.Type,
		record.Description,
		record.Status,
		nullIfEmpty(record.IdempotencyKey),
		record.OccurredAt,
	)
	return mapError(err, nil)
}

// GetByIdempotencyKey finds the transaction an actor recorded under key.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Transaction, actorID, key string) (*domain.Transaction, error) {
	q, err := conn(r.db, tx)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE actor_id = $1 AND idempotency_key = $2`,
		actorID, key,
	)
	record, err := scanTransaction(row)
	return record, mapError(err, domain.ErrTransactionNotFound)
}

// ListByWallet lists transactions touching a wallet, newest first.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE wallet_id = $1 OR related_wallet_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		walletID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, t)
	}

	return records, rows.Err()
}

// SumByWallet aggregates the completed history of a wallet.
func (r *TransactionRepository) SumByWallet(ctx context.Context, walletID string) (domain.WalletFlows, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'deposit' AND wallet_id = $1), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE type = 'withdraw' AND wallet_id = $1), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE type = 'transfer' AND wallet_id = $1), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE type = 'transfer' AND related_wallet_id = $1), 0)::BIGINT
		FROM transactions
		WHERE status = $2 AND (wallet_id = $1 OR related_wallet_id = $1)
	`

	var f domain.WalletFlows
	err := r.db.QueryRow(ctx, query, walletID, domain.TransactionStatusComplete).
		Scan(&f.Deposits, &f.Withdrawals, &f.TransfersOut, &f.TransfersIn)
	if err != nil {
		return domain.WalletFlows{}, err
	}
	return f, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t   domain.Transaction
		key *string
	)
	err := row.Scan(
		&t.ID,
		&t.ActorID,
		&t.WalletID,
		&t.RelatedWalletID,
		&t.Amount,
		&t.Type,
		&t.Description,
		&t.Status,
		&key,
		&t.OccurredAt,
	)
	if err != nil {
		return nil, err
	}
	if key != nil {
		t.IdempotencyKey = *key
	}
	return &t, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
