package dto

import (
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// WalletResponse represents a wallet in API responses. Balance is the
// display amount; BalanceMinor the exact stored value.
type WalletResponse struct {
	ID            string              `json:"id"`
	OwnerID       string              `json:"owner_id"`
	CurrencyID    string              `json:"currency_id"`
	Currency      string              `json:"currency"`
	DecimalPlaces int32               `json:"decimal_places"`
	Balance       string              `json:"balance"`
	BalanceMinor  int64               `json:"balance_minor"`
	Status        domain.WalletStatus `json:"status"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// WalletFromSnapshot converts a wallet snapshot to response.
func WalletFromSnapshot(w *usecase.WalletSnapshot) *WalletResponse {
	if w == nil {
		return nil
	}
	return &WalletResponse{
		ID:            w.ID,
		OwnerID:       w.OwnerID,
		CurrencyID:    w.CurrencyID,
		Currency:      w.CurrencyCode,
		DecimalPlaces: w.DecimalPlaces,
		Balance:       w.Balance,
		BalanceMinor:  w.BalanceMinor,
		Status:        w.Status,
		UpdatedAt:     w.UpdatedAt,
	}
}

// WalletsFromSnapshots converts wallet snapshots to responses.
func WalletsFromSnapshots(wallets []*usecase.WalletSnapshot) []*WalletResponse {
	result := make([]*WalletResponse, len(wallets))
	for i, w := range wallets {
		result[i] = WalletFromSnapshot(w)
	}
	return result
}

// TransactionResponse represents a transaction record in API responses.
type TransactionResponse struct {
	ID              string                   `json:"id"`
	ActorID         string                   `json:"actor_id"`
	WalletID        string                   `json:"wallet_id"`
	RelatedWalletID string                   `json:"related_wallet_id,omitempty"`
	Type            domain.TransactionType   `json:"type"`
	Amount          string                   `json:"amount"`
	AmountMinor     int64                    `json:"amount_minor"`
	Currency        string                   `json:"currency"`
	Description     string                   `json:"description,omitempty"`
	Status          domain.TransactionStatus `json:"status"`
	OccurredAt      time.Time                `json:"occurred_at"`
}

// TransactionFromSnapshot converts a transaction snapshot to response.
func TransactionFromSnapshot(t *usecase.TransactionSnapshot) *TransactionResponse {
	if t == nil {
		return nil
	}
	return &TransactionResponse{
		ID:              t.ID,
		ActorID:         t.ActorID,
		WalletID:        t.WalletID,
		RelatedWalletID: t.RelatedWalletID,
		Type:            t.Type,
		Amount:          t.Amount,
		AmountMinor:     t.AmountMinor,
		Currency:        t.CurrencyCode,
		Description:     t.Description,
		Status:          t.Status,
		OccurredAt:      t.OccurredAt,
	}
}

// TransactionsFromSnapshots converts transaction snapshots to responses.
func TransactionsFromSnapshots(records []*usecase.TransactionSnapshot) []*TransactionResponse {
	result := make([]*TransactionResponse, len(records))
	for i, t := range records {
		result[i] = TransactionFromSnapshot(t)
	}
	return result
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string            `json:"id"`
	Username  string            `json:"username"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone,omitempty"`
	Role      domain.Role       `json:"role"`
	Status    domain.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// UserFromSnapshot converts a user snapshot to response.
func UserFromSnapshot(u *usecase.UserSnapshot) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
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

// UsersFromSnapshots converts user snapshots to responses.
func UsersFromSnapshots(users []*usecase.UserSnapshot) []*UserResponse {
	result := make([]*UserResponse, len(users))
	for i, u := range users {
		result[i] = UserFromSnapshot(u)
	}
	return result
}

// CurrencyResponse represents a currency in API responses.
type CurrencyResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	DecimalPlaces int32     `json:"decimal_places"`
	CreatedAt     time.Time `json:"created_at"`
}

// CurrencyFromDomain converts domain currency to response.
func CurrencyFromDomain(c *domain.Currency) *CurrencyResponse {
	return &CurrencyResponse{
		ID:            c.ID,
		Code:          c.Code,
		Name:          c.Name,
		DecimalPlaces: c.DecimalPlaces,
		CreatedAt:     c.CreatedAt,
	}
}

// CurrenciesFromDomain converts domain currencies to responses.
func CurrenciesFromDomain(currencies []*domain.Currency) []*CurrencyResponse {
	result := make([]*CurrencyResponse, len(currencies))
	for i, c := range currencies {
		result[i] = CurrencyFromDomain(c)
	}
	return result
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      *UserResponse     `json:"user"`
	Wallets   []*WalletResponse `json:"wallets"`
}

// AuthFromResult converts an auth result to response.
func AuthFromResult(r *usecase.AuthResult) *AuthResponse {
	resp := &AuthResponse{
		User:    UserFromSnapshot(r.User),
		Wallets: WalletsFromSnapshots(r.Wallets),
	}
	if r.Session != nil {
		resp.Token = r.Session.Token
		resp.ExpiresAt = r.Session.ExpiresAt
	}
	return resp
}

// ProfileResponse is the authenticated user with their wallets.
type ProfileResponse struct {
	User    *UserResponse     `json:"user"`
	Wallets []*WalletResponse `json:"wallets"`
}

// ProfileFromResult converts a profile to response.
func ProfileFromResult(p *usecase.Profile) *ProfileResponse {
	return &ProfileResponse{
		User:    UserFromSnapshot(p.User),
		Wallets: WalletsFromSnapshots(p.Wallets),
	}
}

// BalanceResponse is returned by deposit and withdraw.
type BalanceResponse struct {
	Wallet      *WalletResponse      `json:"wallet"`
	Transaction *TransactionResponse `json:"transaction"`
	Replayed    bool                 `json:"replayed"`
}

// BalanceFromResult converts a balance change result to response.
func BalanceFromResult(r *usecase.BalanceResult) *BalanceResponse {
	return &BalanceResponse{
		Wallet:      WalletFromSnapshot(r.Wallet),
		Transaction: TransactionFromSnapshot(r.Transaction),
		Replayed:    r.Replayed,
	}
}

// TransferResponse is returned to the sender of a P2P transfer. The
// receiver's balance is not disclosed.
type TransferResponse struct {
	Wallet      *WalletResponse      `json:"wallet"`
	Transaction *TransactionResponse `json:"transaction"`
	Replayed    bool                 `json:"replayed"`
}

// TransferFromResult converts a transfer result to response.
func TransferFromResult(r *usecase.TransferResult) *TransferResponse {
	return &TransferResponse{
		Wallet:      WalletFromSnapshot(r.Sender),
		Transaction: TransactionFromSnapshot(r.Transaction),
		Replayed:    r.Replayed,
	}
}

// ListWalletsResponse represents a list of wallets.
type ListWalletsResponse struct {
	Wallets []*WalletResponse `json:"wallets"`
}

// ListTransactionsResponse represents a page of transaction history.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

// ListUsersResponse represents a page of users.
type ListUsersResponse struct {
	Users  []*UserResponse `json:"users"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// ListCurrenciesResponse represents the currency catalogue.
type ListCurrenciesResponse struct {
	Currencies []*CurrencyResponse `json:"currencies"`
}

// ErrorResponse represents an error response. Code is a stable machine
// readable label.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
