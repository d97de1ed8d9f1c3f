package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/adapter/repository/memory"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/usecase"
)

type fixture struct {
	store        *memory.Store
	currencies   *memory.CurrencyRepository
	users        *memory.UserRepository
	wallets      *memory.WalletRepository
	transactions *memory.TransactionRepository
	outbox       *memory.OutboxRepository
	audit        *memory.AuditRepository
	ids          *memory.SequentialIDGenerator
	metrics      *metrics.Metrics
	ledger       *usecase.LedgerUseCase

	usd *domain.Currency
	eur *domain.Currency
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore(2 * time.Second)
	f := &fixture{
		store:        store,
		currencies:   memory.NewCurrencyRepository(store),
		users:        memory.NewUserRepository(store),
		wallets:      memory.NewWalletRepository(store),
		transactions: memory.NewTransactionRepository(store),
		outbox:       memory.NewOutboxRepository(store),
		audit:        memory.NewAuditRepository(store),
		ids:          memory.NewSequentialIDGenerator("id"),
		metrics:      metrics.New(prometheus.NewRegistry()),
	}

	f.ledger = usecase.NewLedgerUseCase(
		f.store,
		f.wallets,
		f.users,
		f.currencies,
		f.transactions,
		f.outbox,
		f.ids,
		nil,
		f.metrics,
		zerolog.Nop(),
	)

	f.usd = f.addCurrency(t, "USD", 2)
	f.eur = f.addCurrency(t, "EUR", 2)

	return f
}

func (f *fixture) addCurrency(t *testing.T, code string, decimalPlaces int32) *domain.Currency {
	t.Helper()

	c, err := domain.NewCurrency(f.ids.Generate(), code, code, decimalPlaces, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, f.currencies.Create(context.Background(), c))
	return c
}

func (f *fixture) addUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()
	u := &domain.User{
		ID:             f.ids.Generate(),
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "hash:" + username,
		Role:           role,
		Status:         domain.UserStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.users.Create(ctx, tx, u))
	require.NoError(t, tx.Commit(ctx))

	return u
}

func (f *fixture) addWallet(t *testing.T, owner *domain.User, currency *domain.Currency, balance int64) *domain.Wallet {
	t.Helper()

	ctx := context.Background()
	w := domain.NewWallet(f.ids.Generate(), owner.ID, currency.ID, time.Now().UTC())
	w.Balance = balance

	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.wallets.Create(ctx, tx, w))
	require.NoError(t, tx.Commit(ctx))

	return w
}

func (f *fixture) balance(t *testing.T, walletID string) int64 {
	t.Helper()

	w, err := f.wallets.GetByID(context.Background(), nil, walletID)
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) setWalletStatus(t *testing.T, walletID string, status domain.WalletStatus) {
	t.Helper()

	ctx := context.Background()
	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.wallets.UpdateStatus(ctx, tx, walletID, status, time.Now().UTC()))
	require.NoError(t, tx.Commit(ctx))
}

func (f *fixture) setUserStatus(t *testing.T, userID string, status domain.UserStatus) {
	t.Helper()

	ctx := context.Background()
	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.users.UpdateStatus(ctx, tx, userID, status, time.Now().UTC()))
	require.NoError(t, tx.Commit(ctx))
}

func (f *fixture) history(t *testing.T, walletID string) []*domain.Transaction {
	t.Helper()

	records, err := f.transactions.ListByWallet(context.Background(), walletID, 100, 0)
	require.NoError(t, err)
	return records
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
