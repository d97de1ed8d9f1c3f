package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

func TestTransactionUseCase_ListByWallet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	teller := f.addUser(t, "teller", domain.RoleEmployee)
	alice := f.addUser(t, "alice", domain.RoleUser)
	bob := f.addUser(t, "bob", domain.RoleUser)
	aw := f.addWallet(t, alice, f.usd, 0)
	bw := f.addWallet(t, bob, f.usd, 0)

	_, err := f.ledger.Deposit(ctx, usecase.DepositInput{ActorID: teller.ID, WalletID: aw.ID, Amount: amount("5")})
	require.NoError(t, err)
	_, err = f.ledger.Transfer(ctx, usecase.TransferInput{ActorID: alice.ID, SenderWalletID: aw.ID, ReceiverIdentifier: "bob", Amount: amount("2")})
	require.NoError(t, err)

	uc := usecase.NewTransactionUseCase(f.wallets, f.users, f.currencies, f.transactions, nil, zerolog.Nop())

	own, err := uc.ListByWallet(ctx, alice.ID, aw.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, tx := range own {
		assert.Equal(t, "USD", tx.CurrencyCode)
	}

	incoming, err := uc.ListByWallet(ctx, bob.ID, bw.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, domain.TransactionTypeTransfer, incoming[0].Type)
	assert.Equal(t, "2.00", incoming[0].Amount)
	assert.Equal(t, bw.ID, incoming[0].RelatedWalletID)

	page, err := uc.ListByWallet(ctx, teller.ID, aw.ID, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	_, err = uc.ListByWallet(ctx, bob.ID, aw.ID, 10, 0)
	require.ErrorIs(t, err, domain.ErrForbidden)
}
