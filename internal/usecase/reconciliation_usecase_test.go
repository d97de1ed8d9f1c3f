package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

func newReconciliationUseCase(f *fixture) *usecase.ReconciliationUseCase {
	return usecase.NewReconciliationUseCase(f.store, f.wallets, f.transactions, f.currencies, f.metrics, zerolog.Nop())
}

func TestReconciliationUseCase_BalancesMatchHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	teller := f.addUser(t, "teller", domain.RoleEmployee)
	alice := f.addUser(t, "alice", domain.RoleUser)
	bob := f.addUser(t, "bob", domain.RoleUser)
	aw := f.addWallet(t, alice, f.usd, 0)
	bw := f.addWallet(t, bob, f.usd, 0)

	_, err := f.ledger.Deposit(ctx, usecase.DepositInput{ActorID: teller.ID, WalletID: aw.ID, Amount: amount("10")})
	require.NoError(t, err)
	_, err = f.ledger.Transfer(ctx, usecase.TransferInput{ActorID: alice.ID, SenderWalletID: aw.ID, ReceiverIdentifier: "bob", Amount: amount("4")})
	require.NoError(t, err)
	_, err = f.ledger.Withdraw(ctx, usecase.WithdrawInput{ActorID: teller.ID, WalletID: bw.ID, Amount: amount("1.50")})
	require.NoError(t, err)

	uc := newReconciliationUseCase(f)

	result, err := uc.ReconcileWallet(ctx, bw.ID)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
	assert.Equal(t, int64(250), result.RecordedBalance)
	assert.Equal(t, int64(250), result.ExpectedBalance)

	report, err := uc.GenerateReconciliationReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalWallets)
	assert.Equal(t, 2, report.ReconciledWallets)
	assert.Empty(t, report.Discrepancies)
	require.Len(t, report.Totals, 1)
	assert.Equal(t, "USD", report.Totals[0].CurrencyCode)
	assert.Equal(t, int64(850), report.Totals[0].TotalBalance)
	assert.True(t, report.Consistent())
	assert.NoError(t, report.Err())
}

func TestReconciliationUseCase_DetectsDrift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.addUser(t, "alice", domain.RoleUser)
	w := f.addWallet(t, alice, f.usd, 0)

	// Mutate the balance behind the ledger's back.
	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.wallets.UpdateBalance(ctx, tx, w.ID, 999, time.Now().UTC()))
	require.NoError(t, tx.Commit(ctx))

	uc := newReconciliationUseCase(f)

	report, err := uc.GenerateReconciliationReport(ctx)
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, int64(999), report.Discrepancies[0].Difference)
	assert.False(t, report.Consistent())
	assert.ErrorIs(t, report.Err(), domain.ErrReconciliationFailure)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ReconciliationMismatches))

	_, err = uc.ReconcileWallet(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrWalletNotFound)
}
