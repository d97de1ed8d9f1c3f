package postgres

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

const walletColumns = `id, owner_id, currency_id, balance, status, created_at, updated_at`

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	db querier
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create inserts a wallet.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	q, err := mustTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO wallets (id, owner_id, currency_id, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		wallet.ID,
		wallet.OwnerID,
		wallet.CurrencyID,
		wallet.Balance,
		wallet.Status,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	return mapError(err, nil)
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	q, err := conn(r.db, tx)
	if err != nil {
		return nil, err
	}

	wallet, err := scanWallet(q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id))
	return wallet, mapError(err, domain.ErrWalletNotFound)
}

// GetByIDForUpdate retrieves a wallet by ID with a FOR UPDATE lock.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	q, err := mustTx(tx)
	if err != nil {
		return nil, err
	}

	wallet, err := scanWallet(q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id))
	return wallet, mapError(err, domain.ErrWalletNotFound)
}

// GetByIDsForUpdate locks the wallets in ascending id order so that
// concurrent transfers between the same pair cannot deadlock.
func (r *WalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	q, err := mustTx(tx)
	if err != nil {
		return nil, err
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	rows, err := q.Query(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		sorted,
	)
	if err != nil {
		return nil, mapError(err, nil)
	}

	wallets, err := collectWallets(rows)
	return wallets, mapError(err, nil)
}

// GetByOwnerAndCurrency finds the wallet a user holds in a currency.
func (r *WalletRepository) GetByOwnerAndCurrency(ctx context.Context, tx usecase.Transaction, ownerID, currencyID string) (*domain.Wallet, error) {
	q, err := conn(r.db, tx)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1 AND currency_id = $2`,
		ownerID, currencyID,
	)
	wallet, err := scanWallet(row)
	return wallet, mapError(err, domain.ErrWalletNotFound)
}

// ListByOwner lists the wallets of a user, oldest first.
func (r *WalletRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Wallet, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1 ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	return collectWallets(rows)
}

// List lists wallets ordered by id.
func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+walletColumns+` FROM wallets ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectWallets(rows)
}

// UpdateBalance sets the balance of a wallet locked by the unit of work.
func (r *WalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	return r.update(ctx, tx, `UPDATE wallets SET balance = $2, updated_at = $3 WHERE id = $1`, id, balance, updatedAt)
}

// UpdateStatus sets the status of a wallet.
func (r *WalletRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.WalletStatus, updatedAt time.Time) error {
	return r.update(ctx, tx, `UPDATE wallets SET status = $2, updated_at = $3 WHERE id = $1`, id, status, updatedAt)
}

func (r *WalletRepository) update(ctx context.Context, tx usecase.Transaction, query string, args ...any) error {
	q, err := mustTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

func collectWallets(rows pgx.Rows) ([]*domain.Wallet, error) {
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}

	return wallets, rows.Err()
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(&w.ID, &w.OwnerID, &w.CurrencyID, &w.Balance, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
