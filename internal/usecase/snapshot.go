package usecase

import (
	"time"

	"github.com/iho/gowallet/internal/domain"
)

// WalletSnapshot is a point in time view of a wallet.
type WalletSnapshot struct {
	ID            string
	OwnerID       string
	CurrencyID    string
	CurrencyCode  string
	DecimalPlaces int32
	BalanceMinor  int64
	Balance       string
	Status        domain.WalletStatus
	UpdatedAt     time.Time
}

// TransactionSnapshot is the caller facing view of a transaction record.
type TransactionSnapshot struct {
	ID              string
	ActorID         string
	WalletID        string
	RelatedWalletID string
	AmountMinor     int64
	Amount          string
	CurrencyCode    string
	Type            domain.TransactionType
	Description     string
	Status          domain.TransactionStatus
	OccurredAt      time.Time
}

// UserSnapshot is the caller facing view of a user. It never carries the
// password hash.
type UserSnapshot struct {
	ID        string
	Username  string
	Email     string
	Phone     string
	Role      domain.Role
	Status    domain.UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newWalletSnapshot(w *domain.Wallet, c *domain.Currency) *WalletSnapshot {
	return &WalletSnapshot{
		ID:            w.ID,
		OwnerID:       w.OwnerID,
		CurrencyID:    w.CurrencyID,
		CurrencyCode:  c.Code,
		DecimalPlaces: c.DecimalPlaces,
		BalanceMinor:  w.Balance,
		Balance:       domain.FormatMinorUnits(w.Balance, c.DecimalPlaces),
		Status:        w.Status,
		UpdatedAt:     w.UpdatedAt,
	}
}

func newTransactionSnapshot(t *domain.Transaction, c *domain.Currency) *TransactionSnapshot {
	return &TransactionSnapshot{
		ID:              t.ID,
		ActorID:         t.ActorID,
		WalletID:        t.WalletID,
		RelatedWalletID: t.CounterpartyID(),
		AmountMinor:     t.Amount,
		Amount:          domain.FormatMinorUnits(t.Amount, c.DecimalPlaces),
		CurrencyCode:    c.Code,
		Type:            t.Type,
		Description:     t.Description,
		Status:          t.Status,
		OccurredAt:      t.OccurredAt,
	}
}

func newUserSnapshot(u *domain.User) *UserSnapshot {
	return &UserSnapshot{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
