package usecase

import (
	"context"
	"time"

	"github.com/iho/gowallet/internal/domain"
)

// Read methods that take a Transaction accept a nil tx, in which case they
// read committed state outside any unit of work.

// CurrencyRepository defines data access for currencies.
type CurrencyRepository interface {
	Create(ctx context.Context, currency *domain.Currency) error
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.Currency, error)
	GetByCode(ctx context.Context, code string) (*domain.Currency, error)
	List(ctx context.Context) ([]*domain.Currency, error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, tx Transaction, user *domain.User) error
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.User, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.User, error)
	// GetByIdentifier finds a user by exact, case-sensitive email or username.
	// An email match wins over a username match.
	GetByIdentifier(ctx context.Context, tx Transaction, identifier string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.UserStatus, updatedAt time.Time) error
	UpdateRole(ctx context.Context, tx Transaction, id string, role domain.Role, updatedAt time.Time) error
}

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	Create(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	// GetByIDsForUpdate locks the wallets in ascending id order. Missing ids
	// are omitted from the result.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Wallet, error)
	GetByOwnerAndCurrency(ctx context.Context, tx Transaction, ownerID, currencyID string) (*domain.Wallet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Wallet, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance int64, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.WalletStatus, updatedAt time.Time) error
}

// TransactionRepository defines data access for the append-only transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, record *domain.Transaction) error
	GetByIdempotencyKey(ctx context.Context, tx Transaction, actorID, key string) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Transaction, error)
	SumByWallet(ctx context.Context, walletID string) (domain.WalletFlows, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key so the request can be retried.
	Delete(ctx context.Context, key string) error
}

// SessionStore tracks the active sessions of each user.
type SessionStore interface {
	Add(ctx context.Context, userID, sessionID string, ttl time.Duration) error
	Exists(ctx context.Context, userID, sessionID string) (bool, error)
	Revoke(ctx context.Context, userID, sessionID string) error
	RevokeAll(ctx context.Context, userID string) error
}

// TokenIssuer issues signed access tokens.
type TokenIssuer interface {
	Generate(user *domain.User, sessionID string) (token string, expiresAt time.Time, err error)
	TTL() time.Duration
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
