package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/gowallet/internal/domain"
)

// PostgreSQL error codes.
const (
	pgErrUniqueViolation      = "23505"
	pgErrCheckViolation       = "23514"
	pgErrForeignKeyViolation  = "23503"
	pgErrLockNotAvailable     = "55P03"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// constraintErrors maps named constraints to domain errors.
var constraintErrors = map[string]error{
	"wallets_balance_non_negative":       domain.ErrInsufficientBalance,
	"wallets_owner_currency_key":         domain.ErrWalletExists,
	"transactions_actor_idempotency_key": domain.ErrDuplicateTransaction,
	"users_username_key":                 domain.ErrUserExists,
	"users_email_key":                    domain.ErrUserExists,
	"currencies_code_key":                domain.ErrCurrencyExists,
	"currencies_pkey":                    domain.ErrCurrencyExists,
	"wallets_owner_id_fkey":              domain.ErrUserNotFound,
	"wallets_currency_id_fkey":           domain.ErrCurrencyNotFound,
}

// mapError converts driver errors into domain errors. notFound is returned
// for pgx.ErrNoRows; a nil notFound leaves ErrNoRows untouched.
func mapError(err, notFound error) error {
	if err == nil {
		return nil
	}

	if notFound != nil && errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrLockNotAvailable:
		return domain.ErrLockTimeout
	case pgErrUniqueViolation, pgErrCheckViolation, pgErrForeignKeyViolation:
		if mapped, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return mapped
		}
	}

	return err
}

// isRetryableError checks if a PostgreSQL error should trigger a retry.
func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return true
		}
	}
	return false
}
