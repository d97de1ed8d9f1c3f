package memory

import (
	"context"
	"sort"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// CurrencyRepository implements usecase.CurrencyRepository.
type CurrencyRepository struct {
	store *Store
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(store *Store) *CurrencyRepository {
	return &CurrencyRepository{store: store}
}

// Create stores a currency. Currencies are reference data and are written
// outside of any unit of work.
func (r *CurrencyRepository) Create(ctx context.Context, currency *domain.Currency) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, c := range r.store.currencies {
		if c.ID == currency.ID || c.Code == currency.Code {
			return domain.ErrCurrencyExists
		}
	}

	r.store.currencies[currency.ID] = cloneCurrency(currency)
	return nil
}

// GetByID finds a currency by id.
func (r *CurrencyRepository) GetByID(ctx context.Context, _ usecase.Transaction, id string) (*domain.Currency, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if c, ok := r.store.currencies[id]; ok {
		return cloneCurrency(c), nil
	}
	return nil, domain.ErrCurrencyNotFound
}

// GetByCode finds a currency by its code.
func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.currencies {
		if c.Code == code {
			return cloneCurrency(c), nil
		}
	}
	return nil, domain.ErrCurrencyNotFound
}

// List lists currencies ordered by code.
func (r *CurrencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	currencies := make([]*domain.Currency, 0, len(r.store.currencies))
	for _, c := range r.store.currencies {
		currencies = append(currencies, cloneCurrency(c))
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].Code < currencies[j].Code })

	return currencies, nil
}
