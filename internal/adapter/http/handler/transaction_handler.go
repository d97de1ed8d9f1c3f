package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	ListByWallet(ctx context.Context, actorID, walletID string, limit, offset int) ([]*usecase.TransactionSnapshot, error)
}

// TransactionHandler serves wallet history.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// ListByWallet lists the transactions touching a wallet, newest first.
func (h *TransactionHandler) ListByWallet(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	limit, offset := parsePage(r)

	records, err := h.transactionUC.ListByWallet(r.Context(), p.UserID, id, limit, offset)
	if err != nil {
		writeDomainError(w, r, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromSnapshots(records),
		Limit:        limit,
		Offset:       offset,
	})
}
