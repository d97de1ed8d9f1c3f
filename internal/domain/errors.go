package domain

import "errors"

var (
	// Amount errors
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidDecimalPlaces = errors.New("invalid decimal places")
	ErrCurrencyMismatch     = errors.New("currency mismatch")

	// Wallet errors
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrWalletNotActive        = errors.New("wallet is not active")
	ErrWalletExists           = errors.New("wallet already exists for this currency")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrReceiverNotFound       = errors.New("receiver not found")
	ErrReceiverWalletNotFound = errors.New("receiver has no wallet in this currency")
	ErrSameWalletTransfer     = errors.New("cannot transfer to the same wallet")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserNotActive      = errors.New("user is not active")
	ErrUserExists         = errors.New("user with this username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Currency errors
	ErrCurrencyNotFound = errors.New("currency not found")
	ErrCurrencyExists   = errors.New("currency already exists")

	// Transaction errors
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrInvalidTransaction    = errors.New("invalid transaction")
	ErrDuplicateTransaction  = errors.New("transaction with this idempotency key already exists")
	ErrIdempotencyKeyReused  = errors.New("idempotency key was used for a different operation")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrAlreadyInState        = errors.New("already in requested state")
	ErrInvalidTransition     = errors.New("status transition not allowed")
	ErrLockTimeout           = errors.New("timed out waiting for lock")
	ErrPersistenceFailure    = errors.New("persistence failure")
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidToken          = errors.New("invalid token")
	ErrExpiredToken          = errors.New("token has expired")
	ErrSessionRevoked        = errors.New("session has been revoked")
	ErrReconciliationFailure = errors.New("wallet balance does not match transaction history")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInvalidDecimalPlaces, "invalid_decimal_places"},
	{ErrCurrencyMismatch, "currency_mismatch"},
	{ErrWalletNotFound, "wallet_not_found"},
	{ErrWalletNotActive, "wallet_not_active"},
	{ErrWalletExists, "wallet_exists"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrReceiverNotFound, "receiver_not_found"},
	{ErrReceiverWalletNotFound, "receiver_wallet_not_found"},
	{ErrSameWalletTransfer, "same_wallet_transfer"},
	{ErrUserNotFound, "user_not_found"},
	{ErrUserNotActive, "user_not_active"},
	{ErrUserExists, "user_exists"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrCurrencyNotFound, "currency_not_found"},
	{ErrCurrencyExists, "currency_exists"},
	{ErrTransactionNotFound, "transaction_not_found"},
	{ErrInvalidTransaction, "invalid_transaction"},
	{ErrDuplicateTransaction, "duplicate_transaction"},
	{ErrIdempotencyKeyReused, "idempotency_key_reused"},
	{ErrInvalidStatus, "invalid_status"},
	{ErrAlreadyInState, "already_in_state"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrLockTimeout, "lock_timeout"},
	{ErrForbidden, "forbidden"},
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidToken, "invalid_token"},
	{ErrExpiredToken, "expired_token"},
	{ErrSessionRevoked, "session_revoked"},
	{ErrReconciliationFailure, "reconciliation_failure"},
	{ErrPersistenceFailure, "persistence_failure"},
}

// Kind returns a stable, low-cardinality label for err, suitable for metrics.
// Validation errors wrapping a more specific sentinel report the specific kind.
func Kind(err error) string {
	if err == nil {
		return "none"
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	if errors.Is(err, ErrValidation) {
		return "validation"
	}

	return "internal"
}

// IsBusinessError reports whether err is an expected, user-facing outcome as
// opposed to an infrastructure failure.
func IsBusinessError(err error) bool {
	kind := Kind(err)
	return kind != "internal" && kind != "persistence_failure" && kind != "lock_timeout"
}
