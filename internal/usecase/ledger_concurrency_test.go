package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

func TestLedgerUseCase_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	teller := f.addUser(t, "teller", domain.RoleEmployee)
	alice := f.addUser(t, "alice", domain.RoleUser)
	w := f.addWallet(t, alice, f.usd, 2000)

	const attempts = 50
	var succeeded, rejected atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Withdraw(ctx, usecase.WithdrawInput{ActorID: teller.ID, WalletID: w.ID, Amount: amount("1.00")})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInsufficientBalance):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), succeeded.Load())
	assert.Equal(t, int64(attempts-20), rejected.Load())
	assert.Equal(t, int64(0), f.balance(t, w.ID))
	assert.Len(t, f.history(t, w.ID), 20)
}

func TestLedgerUseCase_ConcurrentDeposits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	teller := f.addUser(t, "teller", domain.RoleEmployee)
	alice := f.addUser(t, "alice", domain.RoleUser)
	w := f.addWallet(t, alice, f.usd, 0)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			_, err := f.ledger.Deposit(gctx, usecase.DepositInput{ActorID: teller.ID, WalletID: w.ID, Amount: amount("0.01")})
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(100), f.balance(t, w.ID))
}

func TestLedgerUseCase_OpposingTransfersConserveFunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.addUser(t, "alice", domain.RoleUser)
	bob := f.addUser(t, "bob", domain.RoleUser)
	aw := f.addWallet(t, alice, f.usd, 10000)
	bw := f.addWallet(t, bob, f.usd, 10000)

	transfer := func(actor *domain.User, from *domain.Wallet, to string) error {
		_, err := f.ledger.Transfer(ctx, usecase.TransferInput{
			ActorID:            actor.ID,
			SenderWalletID:     from.ID,
			ReceiverIdentifier: to,
			Amount:             amount("1.00"),
		})
		if errors.Is(err, domain.ErrInsufficientBalance) {
			return nil
		}
		return err
	}

	done := make(chan error, 1)
	go func() {
		var g errgroup.Group
		for i := 0; i < 100; i++ {
			g.Go(func() error { return transfer(alice, aw, "bob") })
			g.Go(func() error { return transfer(bob, bw, "alice") })
		}
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("opposing transfers did not finish; possible deadlock")
	}

	total := f.balance(t, aw.ID) + f.balance(t, bw.ID)
	assert.Equal(t, int64(20000), total)
	assert.GreaterOrEqual(t, f.balance(t, aw.ID), int64(0))
	assert.GreaterOrEqual(t, f.balance(t, bw.ID), int64(0))
}

func TestLedgerUseCase_ConcurrentRequestsWithSameKeyApplyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	teller := f.addUser(t, "teller", domain.RoleEmployee)
	alice := f.addUser(t, "alice", domain.RoleUser)
	w := f.addWallet(t, alice, f.usd, 0)

	const callers = 10
	ids := make([]string, callers)

	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			result, err := f.ledger.Deposit(ctx, usecase.DepositInput{
				ActorID:        teller.ID,
				WalletID:       w.ID,
				Amount:         amount("5"),
				IdempotencyKey: "same-key",
			})
			if err != nil {
				return err
			}
			ids[i] = result.Transaction.ID
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, int64(500), f.balance(t, w.ID))
	assert.Len(t, f.history(t, w.ID), 1)
}
