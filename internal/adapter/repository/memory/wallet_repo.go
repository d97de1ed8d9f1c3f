package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	store *Store
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(store *Store) *WalletRepository {
	return &WalletRepository{store: store}
}

// Create stages a new wallet.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	mtx, err := txFrom(tx)
	if err != nil {
		return err
	}
	if mtx == nil {
		return errForeignTx
	}

	if _, err := r.find(mtx, wallet.ID); err == nil {
		return domain.ErrWalletExists
	}
	if _, err := r.GetByOwnerAndCurrency(ctx, tx, wallet.OwnerID, wallet.CurrencyID); err == nil {
		return domain.ErrWalletExists
	}

	if err := mtx.lock(ctx, walletKey(wallet.ID)); err != nil {
		return err
	}

	mtx.mu.Lock()
	mtx.wallets[wallet.ID] = cloneWallet(wallet)
	mtx.newWallets = append(mtx.newWallets, wallet.ID)
	mtx.mu.Unlock()

	return nil
}

// GetByID reads a wallet without locking it.
func (r *WalletRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	mtx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.find(mtx, id)
}

// GetByIDForUpdate locks and reads a wallet.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	wallets, err := r.GetByIDsForUpdate(ctx, tx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, domain.ErrWalletNotFound
	}
	return wallets[0], nil
}

// GetByIDsForUpdate locks wallets in ascending id order.
func (r *WalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	mtx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	if mtx == nil {
		return nil, errForeignTx
	}

	sorted := uniqueSorted(ids)
	wallets := make([]*domain.Wallet, 0, len(sorted))

	for _, id := range sorted {
		if _, err := r.find(mtx, id); err != nil {
			continue
		}
		if err := mtx.lock(ctx, walletKey(id)); err != nil {
			return nil, err
		}
		// Re-read after the lock so the caller sees the last committed balance.
		w, err := r.find(mtx, id)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}

	return wallets, nil
}

// GetByOwnerAndCurrency finds the wallet of ownerID in currencyID.
func (r *WalletRepository) GetByOwnerAndCurrency(ctx context.Context, tx usecase.Transaction, ownerID, currencyID string) (*domain.Wallet, error) {
	mtx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	if mtx != nil {
		mtx.mu.Lock()
		for _, w := range mtx.wallets {
			if w.OwnerID == ownerID && w.CurrencyID == currencyID {
				found := cloneWallet(w)
				mtx.mu.Unlock()
				return found, nil
			}
		}
		mtx.mu.Unlock()
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, w := range r.store.wallets {
		if w.OwnerID == ownerID && w.CurrencyID == currencyID {
			return cloneWallet(w), nil
		}
	}

	return nil, domain.ErrWalletNotFound
}

// ListByOwner lists the committed wallets of a user, oldest first.
func (r *WalletRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var wallets []*domain.Wallet
	for _, w := range r.store.wallets {
		if w.OwnerID == ownerID {
			wallets = append(wallets, cloneWallet(w))
		}
	}

	sort.Slice(wallets, func(i, j int) bool {
		if wallets[i].CreatedAt.Equal(wallets[j].CreatedAt) {
			return wallets[i].ID < wallets[j].ID
		}
		return wallets[i].CreatedAt.Before(wallets[j].CreatedAt)
	})

	return wallets, nil
}

// List lists committed wallets ordered by id.
func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wallets := make([]*domain.Wallet, 0, len(r.store.wallets))
	for _, w := range r.store.wallets {
		wallets = append(wallets, cloneWallet(w))
	}

	sort.Slice(wallets, func(i, j int) bool { return wallets[i].ID < wallets[j].ID })

	return paginate(wallets, limit, offset), nil
}

// UpdateBalance stages a new balance. The row lock is taken if not yet held.
func (r *WalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	return r.update(ctx, tx, id, func(w *domain.Wallet) {
		w.Balance = balance
		w.UpdatedAt = updatedAt
	})
}

// UpdateStatus stages a new status.
func (r *WalletRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.WalletStatus, updatedAt time.Time) error {
	return r.update(ctx, tx, id, func(w *domain.Wallet) {
		w.Status = status
		w.UpdatedAt = updatedAt
	})
}

func (r *WalletRepository) update(ctx context.Context, tx usecase.Transaction, id string, apply func(*domain.Wallet)) error {
	mtx, err := txFrom(tx)
	if err != nil {
		return err
	}
	if mtx == nil {
		return errForeignTx
	}

	if err := mtx.lock(ctx, walletKey(id)); err != nil {
		return err
	}

	w, err := r.find(mtx, id)
	if err != nil {
		return err
	}
	apply(w)
	// Mirrors the balance >= 0 check constraint of the SQL schema.
	if w.Balance < 0 {
		return domain.ErrInsufficientBalance
	}

	mtx.mu.Lock()
	mtx.wallets[id] = w
	mtx.mu.Unlock()

	return nil
}

// find returns a copy of the wallet as seen by mtx, which may be nil.
func (r *WalletRepository) find(mtx *Tx, id string) (*domain.Wallet, error) {
	if mtx != nil {
		mtx.mu.Lock()
		w, ok := mtx.wallets[id]
		mtx.mu.Unlock()
		if ok {
			return cloneWallet(w), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if w, ok := r.store.wallets[id]; ok {
		return cloneWallet(w), nil
	}
	return nil, domain.ErrWalletNotFound
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
