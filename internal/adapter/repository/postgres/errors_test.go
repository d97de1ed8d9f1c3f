package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/iho/gowallet/internal/domain"
)

func TestMapError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		notFound error
		want     error
	}{
		{"nil", nil, domain.ErrWalletNotFound, nil},
		{"no rows", pgx.ErrNoRows, domain.ErrWalletNotFound, domain.ErrWalletNotFound},
		{"no rows without mapping", pgx.ErrNoRows, nil, pgx.ErrNoRows},
		{"lock timeout", &pgconn.PgError{Code: pgErrLockNotAvailable}, nil, domain.ErrLockTimeout},
		{"negative balance", &pgconn.PgError{Code: pgErrCheckViolation, ConstraintName: "wallets_balance_non_negative"}, nil, domain.ErrInsufficientBalance},
		{"duplicate wallet", &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "wallets_owner_currency_key"}, nil, domain.ErrWalletExists},
		{"duplicate key", &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "transactions_actor_idempotency_key"}, nil, domain.ErrDuplicateTransaction},
		{"duplicate email", &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "users_email_key"}, nil, domain.ErrUserExists},
		{"missing owner", &pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: "wallets_owner_id_fkey"}, nil, domain.ErrUserNotFound},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgErrLockNotAvailable}), nil, domain.ErrLockTimeout},
		{"other", other, nil, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, tt.notFound)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapErrorKeepsUnknownConstraint(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "something_else"}
	got := mapError(pgErr, nil)

	var asPg *pgconn.PgError
	assert.True(t, errors.As(got, &asPg))
	assert.Equal(t, "something_else", asPg.ConstraintName)
}
