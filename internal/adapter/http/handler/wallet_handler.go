package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	CreateWallet(ctx context.Context, actorID, currencyID string) (*usecase.WalletSnapshot, error)
	GetWallet(ctx context.Context, actorID, walletID string) (*usecase.WalletSnapshot, error)
	ListWallets(ctx context.Context, actorID, ownerID string) ([]*usecase.WalletSnapshot, error)
	SetWalletStatus(ctx context.Context, actorID, walletID string, status domain.WalletStatus) (*usecase.WalletSnapshot, error)
}

// CurrencyLookup resolves a currency code to its catalogue entry.
type CurrencyLookup interface {
	GetByCode(ctx context.Context, code string) (*domain.Currency, error)
}

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	walletUC   WalletService
	currencies CurrencyLookup
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService, currencies CurrencyLookup) *WalletHandler {
	return &WalletHandler{walletUC: walletUC, currencies: currencies}
}

// Create opens a wallet for the caller.
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreateWalletRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	currencyID := req.CurrencyID
	if currencyID == "" {
		if req.CurrencyCode == "" {
			writeError(w, http.StatusBadRequest, "missing currency", "currency_id or currency is required")
			return
		}

		currency, err := h.currencies.GetByCode(r.Context(), req.CurrencyCode)
		if err != nil {
			writeDomainError(w, r, "failed to resolve currency", err)
			return
		}
		currencyID = currency.ID
	}

	wallet, err := h.walletUC.CreateWallet(r.Context(), p.UserID, currencyID)
	if err != nil {
		writeDomainError(w, r, "failed to create wallet", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.WalletFromSnapshot(wallet))
}

// Get retrieves a wallet by ID.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), p.UserID, id)
	if err != nil {
		writeDomainError(w, r, "failed to get wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromSnapshot(wallet))
}

// List lists the caller's own wallets.
func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	h.list(w, r, p.UserID, p.UserID)
}

// ListByOwner lists the wallets of the user in the path.
func (h *WalletHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ownerID := chi.URLParam(r, "id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	h.list(w, r, p.UserID, ownerID)
}

func (h *WalletHandler) list(w http.ResponseWriter, r *http.Request, actorID, ownerID string) {
	wallets, err := h.walletUC.ListWallets(r.Context(), actorID, ownerID)
	if err != nil {
		writeDomainError(w, r, "failed to list wallets", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListWalletsResponse{
		Wallets: dto.WalletsFromSnapshots(wallets),
	})
}

// Freeze blocks all balance changes on a wallet.
func (h *WalletHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.WalletStatusFrozen)
}

// Activate unfreezes a wallet.
func (h *WalletHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.WalletStatusActive)
}

func (h *WalletHandler) setStatus(w http.ResponseWriter, r *http.Request, status domain.WalletStatus) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wallet ID", "")
		return
	}

	wallet, err := h.walletUC.SetWalletStatus(r.Context(), p.UserID, id, status)
	if err != nil {
		writeDomainError(w, r, "failed to change wallet status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromSnapshot(wallet))
}
