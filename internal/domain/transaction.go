package domain

import (
	"fmt"
	"time"
)

// TransactionType identifies the kind of balance mutation.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
	TransactionTypeTransfer TransactionType = "transfer"
)

// IsValid checks the transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeTransfer:
		return true
	}
	return false
}

// TransactionStatus is the settlement state of a transaction record.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusComplete TransactionStatus = "complete"
	TransactionStatusFailed   TransactionStatus = "failed"
)

// Default descriptions recorded when the caller provides none.
const (
	DefaultDepositDescription  = "Deposit to wallet"
	DefaultWithdrawDescription = "Withdraw from wallet"
	transferDescriptionFormat  = "P2P transfer to %s"
)

// DefaultTransferDescription describes a transfer to username.
func DefaultTransferDescription(username string) string {
	return fmt.Sprintf(transferDescriptionFormat, username)
}

// Transaction is an immutable record of one balance mutation.
// RelatedWalletID is set only for transfers and names the receiving wallet.
type Transaction struct {
	ID              string            `json:"id"`
	ActorID         string            `json:"actor_user_id"`
	WalletID        string            `json:"wallet_id"`
	RelatedWalletID *string           `json:"related_wallet_id,omitempty"`
	Amount          int64             `json:"amount"`
	Type            TransactionType   `json:"type"`
	Description     string            `json:"description"`
	Status          TransactionStatus `json:"status"`
	IdempotencyKey  string            `json:"idempotency_key,omitempty"`
	OccurredAt      time.Time         `json:"occurred_at"`
}

// Validate validates the transaction.
func (t *Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	}

	isTransfer := t.Type == TransactionTypeTransfer
	if isTransfer != (t.RelatedWalletID != nil) {
		return fmt.Errorf("%w: related wallet must be set for transfers only", ErrInvalidTransaction)
	}
	if isTransfer && *t.RelatedWalletID == t.WalletID {
		return ErrSameWalletTransfer
	}
	return nil
}

// Matches reports whether a previously recorded transaction describes the
// same request, used when an idempotency key is replayed.
func (t *Transaction) Matches(typ TransactionType, walletID string, amount int64) bool {
	return t.Type == typ && t.WalletID == walletID && t.Amount == amount
}

// CounterpartyID returns the related wallet id, or "" when there is none.
func (t *Transaction) CounterpartyID() string {
	if t.RelatedWalletID == nil {
		return ""
	}
	return *t.RelatedWalletID
}

// WalletFlows aggregates a wallet's completed transaction history.
type WalletFlows struct {
	Deposits     int64
	Withdrawals  int64
	TransfersOut int64
	TransfersIn  int64
}

// ExpectedBalance is the balance implied by the history of a wallet that
// started at zero.
func (f WalletFlows) ExpectedBalance() int64 {
	return f.Deposits - f.Withdrawals - f.TransfersOut + f.TransfersIn
}
