// Package memory is an in-process implementation of the repository
// interfaces. It honours the same contract as the Postgres backend: row locks
// held until commit or rollback, writes staged per transaction and applied
// atomically on commit, and unique constraints checked at commit time.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

var errForeignTx = errors.New("memory: transaction was not started by this store")

// Store holds committed state.
type Store struct {
	mu           sync.RWMutex
	currencies   map[string]*domain.Currency
	users        map[string]*domain.User
	wallets      map[string]*domain.Wallet
	transactions []*domain.Transaction
	outbox       []*domain.OutboxEvent
	audit        []*domain.AuditLog

	locks       *lockTable
	lockTimeout time.Duration
}

// NewStore creates an empty store. A positive lockTimeout bounds how long a
// transaction waits for a row lock before failing with domain.ErrLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		currencies:  make(map[string]*domain.Currency),
		users:       make(map[string]*domain.User),
		wallets:     make(map[string]*domain.Wallet),
		locks:       &lockTable{locks: make(map[string]chan struct{})},
		lockTimeout: lockTimeout,
	}
}

// Begin starts a new transaction. Store implements usecase.TransactionManager.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:   s,
		held:    make(map[string]struct{}),
		wallets: make(map[string]*domain.Wallet),
		users:   make(map[string]*domain.User),
	}, nil
}

// Ping implements the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Tx is a unit of work against a Store.
type Tx struct {
	store *Store

	mu           sync.Mutex
	held         map[string]struct{}
	wallets      map[string]*domain.Wallet
	newWallets   []string
	users        map[string]*domain.User
	newUsers     []string
	transactions []*domain.Transaction
	outbox       []*domain.OutboxEvent
	audit        []*domain.AuditLog
	done         bool
}

// Commit applies the staged writes atomically and releases all locks.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return errors.New("memory: transaction already closed")
	}
	defer t.finish()

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := t.checkConstraints(); err != nil {
		return err
	}

	for id, w := range t.wallets {
		s.wallets[id] = cloneWallet(w)
	}
	for id, u := range t.users {
		s.users[id] = cloneUser(u)
	}
	for _, rec := range t.transactions {
		s.transactions = append(s.transactions, cloneTransaction(rec))
	}
	s.outbox = append(s.outbox, t.outbox...)
	s.audit = append(s.audit, t.audit...)

	return nil
}

// Rollback discards the staged writes and releases all locks. Rolling back a
// finished transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *Tx) finish() {
	for key := range t.held {
		t.store.locks.release(key)
	}
	t.held = nil
	t.done = true
}

// checkConstraints re-validates unique keys against state committed by
// concurrent transactions. Caller holds store.mu.
func (t *Tx) checkConstraints() error {
	s := t.store

	for _, id := range t.newWallets {
		w := t.wallets[id]
		for _, existing := range s.wallets {
			if existing.OwnerID == w.OwnerID && existing.CurrencyID == w.CurrencyID {
				return domain.ErrWalletExists
			}
		}
	}

	for _, id := range t.newUsers {
		u := t.users[id]
		for _, existing := range s.users {
			if existing.Username == u.Username || existing.Email == u.Email {
				return domain.ErrUserExists
			}
		}
	}

	for _, rec := range t.transactions {
		if rec.IdempotencyKey == "" {
			continue
		}
		for _, existing := range s.transactions {
			if existing.ActorID == rec.ActorID && existing.IdempotencyKey == rec.IdempotencyKey {
				return domain.ErrDuplicateTransaction
			}
		}
	}

	return nil
}

// lock acquires the row lock for key unless this transaction already holds it.
func (t *Tx) lock(ctx context.Context, key string) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return errors.New("memory: transaction already closed")
	}
	if _, ok := t.held[key]; ok {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	if err := t.store.locks.acquire(ctx, key, t.store.lockTimeout); err != nil {
		return err
	}

	t.mu.Lock()
	t.held[key] = struct{}{}
	t.mu.Unlock()
	return nil
}

func txFrom(tx usecase.Transaction) (*Tx, error) {
	if tx == nil {
		return nil, nil
	}
	mtx, ok := tx.(*Tx)
	if !ok || mtx == nil {
		return nil, errForeignTx
	}
	return mtx, nil
}

func walletKey(id string) string { return "wallet:" + id }
func userKey(id string) string   { return "user:" + id }

// lockTable provides exclusive, context aware locks keyed by row.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func (l *lockTable) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

func (l *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := l.slot(key)

	select {
	case ch <- struct{}{}:
		return nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-expired:
		return domain.ErrLockTimeout
	}
}

func (l *lockTable) release(key string) {
	<-l.slot(key)
}

func cloneWallet(w *domain.Wallet) *domain.Wallet {
	c := *w
	return &c
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func cloneCurrency(c *domain.Currency) *domain.Currency {
	cp := *c
	return &cp
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.RelatedWalletID != nil {
		related := *t.RelatedWalletID
		c.RelatedWalletID = &related
	}
	return &c
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
