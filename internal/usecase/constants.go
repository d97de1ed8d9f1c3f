package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// CurrencyCacheTTL bounds how long currency reference data is cached.
	CurrencyCacheTTL = time.Hour

	// DefaultCurrencyCode is the currency of the wallet opened at registration.
	DefaultCurrencyCode = "USD"

	// MaxIdempotencyKeyLength bounds client supplied idempotency keys.
	MaxIdempotencyKeyLength = 255

	reconcilePageSize = 500
	systemActor       = "system"
)
