package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

const currencyColumns = `id, code, name, decimal_places, created_at`

// CurrencyRepository implements usecase.CurrencyRepository.
type CurrencyRepository struct {
	db querier
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(db DB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// Create inserts a currency.
func (r *CurrencyRepository) Create(ctx context.Context, currency *domain.Currency) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO currencies (id, code, name, decimal_places, created_at) VALUES ($1, $2, $3, $4, $5)`,
		currency.ID, currency.Code, currency.Name, currency.DecimalPlaces, currency.CreatedAt,
	)
	return mapError(err, nil)
}

// GetByID retrieves a currency by ID.
func (r *CurrencyRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.Currency, error) {
	q, err := conn(r.db, tx)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, `SELECT `+currencyColumns+` FROM currencies WHERE id = $1`, id)
	currency, err := scanCurrency(row)
	return currency, mapError(err, domain.ErrCurrencyNotFound)
}

// GetByCode retrieves a currency by its code.
func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	row := r.db.QueryRow(ctx, `SELECT `+currencyColumns+` FROM currencies WHERE code = $1`, code)
	currency, err := scanCurrency(row)
	return currency, mapError(err, domain.ErrCurrencyNotFound)
}

// List lists currencies ordered by code.
func (r *CurrencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	rows, err := r.db.Query(ctx, `SELECT `+currencyColumns+` FROM currencies ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var currencies []*domain.Currency
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		currencies = append(currencies, c)
	}

	return currencies, rows.Err()
}

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var c domain.Currency
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.DecimalPlaces, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
