package domain

import (
	"fmt"
	"math"
	"time"
)

// WalletStatus is the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive WalletStatus = "active"
	WalletStatusFrozen WalletStatus = "frozen"
)

var walletTransitions = transitions[WalletStatus]{
	WalletStatusActive: {WalletStatusFrozen},
	WalletStatusFrozen: {WalletStatusActive},
}

// ParseWalletStatus validates a status string.
func ParseWalletStatus(s string) (WalletStatus, error) {
	status := WalletStatus(s)
	if _, ok := walletTransitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Wallet holds the balance of one user in one currency.
// Balance is stored in minor units and never drops below zero.
type Wallet struct {
	ID         string       `json:"id"`
	OwnerID    string       `json:"owner_id"`
	CurrencyID string       `json:"currency_id"`
	Balance    int64        `json:"balance"`
	Status     WalletStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewWallet creates an empty, active wallet.
func NewWallet(id, ownerID, currencyID string, now time.Time) *Wallet {
	return &Wallet{
		ID:         id,
		OwnerID:    ownerID,
		CurrencyID: currencyID,
		Status:     WalletStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// EnsureActive rejects mutations on a frozen wallet.
func (w *Wallet) EnsureActive() error {
	if w.Status != WalletStatusActive {
		return ErrWalletNotActive
	}
	return nil
}

// CanTransition reports whether the wallet may move to status.
func (w *Wallet) CanTransition(to WalletStatus) error {
	return walletTransitions.check(w.Status, to)
}

// Transition moves the wallet to a new status.
func (w *Wallet) Transition(to WalletStatus, now time.Time) error {
	if err := w.CanTransition(to); err != nil {
		return err
	}
	w.Status = to
	w.UpdatedAt = now
	return nil
}

// ValidateDebit checks if the wallet can be debited by amount minor units.
func (w *Wallet) ValidateDebit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > w.Balance {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateCredit checks that crediting amount does not overflow the balance.
func (w *Wallet) ValidateCredit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if w.Balance > math.MaxInt64-amount {
		return fmt.Errorf("%w: balance would overflow", ErrInvalidAmount)
	}
	return nil
}

// ApplyDebit returns the new balance after a validated debit.
func (w *Wallet) ApplyDebit(amount int64) int64 {
	return w.Balance - amount
}

// ApplyCredit returns the new balance after a validated credit.
func (w *Wallet) ApplyCredit(amount int64) int64 {
	return w.Balance + amount
}
