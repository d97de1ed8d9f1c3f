package handler

import (
	"context"
	"net/http"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/usecase"
)

// LedgerService defines the balance mutating operations.
type LedgerService interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (*usecase.DepositResult, error)
	Withdraw(ctx context.Context, input usecase.WithdrawInput) (*usecase.WithdrawResult, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
}

// Retrier reruns an operation that failed with a transient storage error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// LedgerHandler handles deposits, withdrawals and P2P transfers.
type LedgerHandler struct {
	ledgerUC LedgerService
	retrier  Retrier
}

// NewLedgerHandler creates a new LedgerHandler. retrier may be nil.
func NewLedgerHandler(ledgerUC LedgerService, retrier Retrier) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, retrier: retrier}
}

// Deposit credits a wallet. Employee or admin only.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.changeBalance(w, r, "failed to deposit", h.ledgerUC.Deposit)
}

// Withdraw debits a wallet. Employee or admin only.
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.changeBalance(w, r, "failed to withdraw", h.ledgerUC.Withdraw)
}

func (h *LedgerHandler) changeBalance(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	op func(context.Context, usecase.BalanceInput) (*usecase.BalanceResult, error),
) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.BalanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := req.ToUseCaseInput(p.UserID, r.Header.Get(middleware.IdempotencyKeyHeader))

	var result *usecase.BalanceResult
	err := h.retry(r.Context(), func() error {
		var err error
		result, err = op(r.Context(), input)
		return err
	})
	if err != nil {
		writeDomainError(w, r, message, err)
		return
	}

	writeJSON(w, createdUnlessReplayed(result.Replayed), dto.BalanceFromResult(result))
}

// Transfer moves funds from the caller's wallet to another user's wallet in
// the same currency.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := req.ToUseCaseInput(p.UserID, r.Header.Get(middleware.IdempotencyKeyHeader))

	var result *usecase.TransferResult
	err := h.retry(r.Context(), func() error {
		var err error
		result, err = h.ledgerUC.Transfer(r.Context(), input)
		return err
	})
	if err != nil {
		writeDomainError(w, r, "failed to transfer", err)
		return
	}

	writeJSON(w, createdUnlessReplayed(result.Replayed), dto.TransferFromResult(result))
}

func (h *LedgerHandler) retry(ctx context.Context, operation func() error) error {
	if h.retrier == nil {
		return operation()
	}
	return h.retrier.Retry(ctx, operation)
}

func createdUnlessReplayed(replayed bool) int {
	if replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}
