package domain

import (
	"errors"
	"testing"
)

func TestTransaction_Validate(t *testing.T) {
	related := "w2"
	same := "w1"

	tests := []struct {
		name    string
		tx      Transaction
		wantErr error
	}{
		{
			name: "valid deposit",
			tx:   Transaction{WalletID: "w1", Amount: 100, Type: TransactionTypeDeposit},
		},
		{
			name: "valid transfer",
			tx:   Transaction{WalletID: "w1", RelatedWalletID: &related, Amount: 100, Type: TransactionTypeTransfer},
		},
		{
			name:    "zero amount",
			tx:      Transaction{WalletID: "w1", Amount: 0, Type: TransactionTypeDeposit},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "deposit with related wallet",
			tx:      Transaction{WalletID: "w1", RelatedWalletID: &related, Amount: 100, Type: TransactionTypeDeposit},
			wantErr: ErrInvalidTransaction,
		},
		{
			name:    "transfer without related wallet",
			tx:      Transaction{WalletID: "w1", Amount: 100, Type: TransactionTypeTransfer},
			wantErr: ErrInvalidTransaction,
		},
		{
			name:    "transfer to same wallet",
			tx:      Transaction{WalletID: "w1", RelatedWalletID: &same, Amount: 100, Type: TransactionTypeTransfer},
			wantErr: ErrSameWalletTransfer,
		},
		{
			name:    "unknown type",
			tx:      Transaction{WalletID: "w1", Amount: 100, Type: "refund"},
			wantErr: ErrInvalidTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWalletFlows_ExpectedBalance(t *testing.T) {
	f := WalletFlows{Deposits: 1000, Withdrawals: 200, TransfersOut: 300, TransfersIn: 50}
	if got := f.ExpectedBalance(); got != 550 {
		t.Fatalf("expected 550, got %d", got)
	}
}

func TestDefaultTransferDescription(t *testing.T) {
	if got := DefaultTransferDescription("bob"); got != "P2P transfer to bob" {
		t.Fatalf("unexpected description %q", got)
	}
}
