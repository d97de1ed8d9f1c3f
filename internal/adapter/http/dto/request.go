package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/usecase"
)

// RegisterRequest represents a sign up request.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		Username: r.Username,
		Email:    r.Email,
		Phone:    r.Phone,
		Password: r.Password,
	}
}

// LoginRequest represents a login request. Identifier may be an email or a
// username; the email and username fields are accepted as aliases.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *LoginRequest) ToUseCaseInput() usecase.LoginInput {
	identifier := r.Identifier
	if identifier == "" {
		identifier = r.Email
	}
	if identifier == "" {
		identifier = r.Username
	}

	return usecase.LoginInput{
		Identifier: strings.TrimSpace(identifier),
		Password:   r.Password,
	}
}

// CreateCurrencyRequest represents a request to add a currency.
type CreateCurrencyRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	DecimalPlaces int32  `json:"decimal_places"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCurrencyRequest) ToUseCaseInput() usecase.CreateCurrencyInput {
	return usecase.CreateCurrencyInput{
		Code:          r.Code,
		Name:          r.Name,
		DecimalPlaces: r.DecimalPlaces,
	}
}

// CreateWalletRequest opens a wallet. Either the currency id or its code is
// required; the id wins when both are set.
type CreateWalletRequest struct {
	CurrencyID   string `json:"currency_id"`
	CurrencyCode string `json:"currency"`
}

// BalanceRequest represents a deposit or withdrawal. Amount accepts both a
// JSON number and a decimal string.
type BalanceRequest struct {
	WalletID string          `json:"wallet_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *BalanceRequest) ToUseCaseInput(actorID, idempotencyKey string) usecase.BalanceInput {
	return usecase.BalanceInput{
		ActorID:        actorID,
		WalletID:       r.WalletID,
		Amount:         r.Amount,
		IdempotencyKey: idempotencyKey,
	}
}

// TransferRequest represents a P2P transfer. Receiver is the receiving
// user's email or username.
type TransferRequest struct {
	SenderWalletID string          `json:"sender_wallet_id"`
	Receiver       string          `json:"receiver"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput(actorID, idempotencyKey string) usecase.TransferInput {
	return usecase.TransferInput{
		ActorID:            actorID,
		SenderWalletID:     r.SenderWalletID,
		ReceiverIdentifier: strings.TrimSpace(r.Receiver),
		Amount:             r.Amount,
		Description:        r.Description,
		IdempotencyKey:     idempotencyKey,
	}
}
