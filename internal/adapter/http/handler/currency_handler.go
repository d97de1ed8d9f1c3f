package handler

import (
	"context"
	"net/http"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// CurrencyService defines the behavior needed by CurrencyHandler.
type CurrencyService interface {
	CreateCurrency(ctx context.Context, actorID string, input usecase.CreateCurrencyInput) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]*domain.Currency, error)
}

// CurrencyHandler serves the currency catalogue.
type CurrencyHandler struct {
	currencyUC CurrencyService
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(currencyUC CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyUC: currencyUC}
}

// Create adds a currency. Admin only.
func (h *CurrencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreateCurrencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	currency, err := h.currencyUC.CreateCurrency(r.Context(), p.UserID, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create currency", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CurrencyFromDomain(currency))
}

// List returns every currency.
func (h *CurrencyHandler) List(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.currencyUC.ListCurrencies(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to list currencies", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListCurrenciesResponse{
		Currencies: dto.CurrenciesFromDomain(currencies),
	})
}
