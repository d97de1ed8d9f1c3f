package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// MockCurrencyRepository is a mock implementation of CurrencyRepository.
type MockCurrencyRepository struct {
	mu         sync.RWMutex
	currencies map[string]*domain.Currency

	CreateFunc    func(ctx context.Context, currency *domain.Currency) error
	GetByIDFunc   func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Currency, error)
	GetByCodeFunc func(ctx context.Context, code string) (*domain.Currency, error)
	ListFunc      func(ctx context.Context) ([]*domain.Currency, error)

	GetByIDCalls   int
	GetByCodeCalls int
}

func NewMockCurrencyRepository() *MockCurrencyRepository {
	return &MockCurrencyRepository{
		currencies: make(map[string]*domain.Currency),
	}
}

func (m *MockCurrencyRepository) Create(ctx context.Context, currency *domain.Currency) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, currency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.currencies {
		if c.Code == currency.Code {
			return domain.ErrCurrencyExists
		}
	}
	m.currencies[currency.ID] = currency
	return nil
}

func (m *MockCurrencyRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.Currency, error) {
	m.mu.Lock()
	m.GetByIDCalls++
	m.mu.Unlock()
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.currencies[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCurrencyNotFound
}

func (m *MockCurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	m.mu.Lock()
	m.GetByCodeCalls++
	m.mu.Unlock()
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.currencies {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, domain.ErrCurrencyNotFound
}

func (m *MockCurrencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var currencies []*domain.Currency
	for _, c := range m.currencies {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].Code < currencies[j].Code })
	return currencies, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	DeleteFunc      func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Stored returns the value held for key.
func (m *MockIdempotencyStore) Stored(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// MockSessionStore is an in-memory SessionStore.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]struct{}

	AddFunc       func(ctx context.Context, userID, sessionID string, ttl time.Duration) error
	RevokeAllFunc func(ctx context.Context, userID string) error
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]map[string]struct{})}
}

func (m *MockSessionStore) Add(ctx context.Context, userID, sessionID string, ttl time.Duration) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, userID, sessionID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[userID] == nil {
		m.sessions[userID] = make(map[string]struct{})
	}
	m.sessions[userID][sessionID] = struct{}{}
	return nil
}

func (m *MockSessionStore) Exists(ctx context.Context, userID, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[userID][sessionID]
	return ok, nil
}

func (m *MockSessionStore) Revoke(ctx context.Context, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions[userID], sessionID)
	return nil
}

func (m *MockSessionStore) RevokeAll(ctx context.Context, userID string) error {
	if m.RevokeAllFunc != nil {
		return m.RevokeAllFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Count returns the number of live sessions of userID.
func (m *MockSessionStore) Count(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions[userID])
}
