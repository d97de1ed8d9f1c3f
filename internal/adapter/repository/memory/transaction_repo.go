package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create stages a transaction record.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.Transaction) error {
	mtx, err := txFrom(tx)
	if err != nil {
		return err
	}
	if mtx == nil {
		return errForeignTx
	}

	if record.IdempotencyKey != "" {
		if _, err := r.GetByIdempotencyKey(ctx, tx, record.ActorID, record.IdempotencyKey); err == nil {
			return domain.ErrDuplicateTransaction
		}
	}

	mtx.mu.Lock()
	mtx.transactions = append(mtx.transactions, cloneTransaction(record))
	mtx.mu.Unlock()

	return nil
}

// GetByIdempotencyKey finds the transaction an actor recorded under key.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Transaction, actorID, key string) (*domain.Transaction, error) {
	mtx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	match := func(t *domain.Transaction) bool {
		return t.IdempotencyKey != "" && t.ActorID == actorID && t.IdempotencyKey == key
	}

	if mtx != nil {
		mtx.mu.Lock()
		for _, t := range mtx.transactions {
			if match(t) {
				found := cloneTransaction(t)
				mtx.mu.Unlock()
				return found, nil
			}
		}
		mtx.mu.Unlock()
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, t := range r.store.transactions {
		if match(t) {
			return cloneTransaction(t), nil
		}
	}

	return nil, domain.ErrTransactionNotFound
}

// ListByWallet lists transactions touching a wallet, newest first.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error) {
	r.store.mu.RLock()
	var records []*domain.Transaction
	for _, t := range r.store.transactions {
		if t.WalletID == walletID || t.CounterpartyID() == walletID {
			records = append(records, cloneTransaction(t))
		}
	}
	r.store.mu.RUnlock()

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].OccurredAt.Equal(records[j].OccurredAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].OccurredAt.After(records[j].OccurredAt)
	})

	return paginate(records, limit, offset), nil
}

// SumByWallet aggregates the completed history of a wallet.
func (r *TransactionRepository) SumByWallet(ctx context.Context, walletID string) (domain.WalletFlows, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var flows domain.WalletFlows
	for _, t := range r.store.transactions {
		if t.Status != domain.TransactionStatusComplete {
			continue
		}
		switch {
		case t.Type == domain.TransactionTypeDeposit && t.WalletID == walletID:
			flows.Deposits += t.Amount
		case t.Type == domain.TransactionTypeWithdraw && t.WalletID == walletID:
			flows.Withdrawals += t.Amount
		case t.Type == domain.TransactionTypeTransfer && t.WalletID == walletID:
			flows.TransfersOut += t.Amount
		case t.Type == domain.TransactionTypeTransfer && t.CounterpartyID() == walletID:
			flows.TransfersIn += t.Amount
		}
	}

	return flows, nil
}

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create stages an outbox event.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	mtx, err := txFrom(tx)
	if err != nil {
		return err
	}
	if mtx == nil {
		return errForeignTx
	}

	e := *event
	mtx.mu.Lock()
	mtx.outbox = append(mtx.outbox, &e)
	mtx.mu.Unlock()

	return nil
}

// GetUnpublished returns pending events in creation order.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var events []*domain.OutboxEvent
	for _, e := range r.store.outbox {
		if e.Published {
			continue
		}
		cp := *e
		events = append(events, &cp)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

// MarkPublished marks an event as delivered.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, e := range r.store.outbox {
		if e.ID == id {
			at := publishedAt
			e.Published = true
			e.PublishedAt = &at
			return nil
		}
	}
	return nil
}

// DeletePublished drops events published before the cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.outbox[:0]
	for _, e := range r.store.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.store.outbox = kept
	return nil
}

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	store *Store
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// CreateTx stages an audit entry.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	mtx, err := txFrom(tx)
	if err != nil {
		return err
	}
	if mtx == nil {
		return errForeignTx
	}

	entry := *log
	mtx.mu.Lock()
	mtx.audit = append(mtx.audit, &entry)
	mtx.mu.Unlock()

	return nil
}

// List returns audit entries matching filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var logs []*domain.AuditLog
	for i := len(r.store.audit) - 1; i >= 0; i-- {
		l := r.store.audit[i]
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		if filter.StartDate != nil && l.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && l.CreatedAt.After(*filter.EndDate) {
			continue
		}
		cp := *l
		logs = append(logs, &cp)
	}

	return paginate(logs, filter.Limit, filter.Offset), nil
}
