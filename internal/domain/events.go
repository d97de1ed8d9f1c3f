package domain

import "time"

// Event types
const (
	EventTypeWalletDeposited     = "wallet.deposited"
	EventTypeWalletWithdrawn     = "wallet.withdrawn"
	EventTypeWalletTransferred   = "wallet.transferred"
	EventTypeWalletStatusChanged = "wallet.status_changed"
	EventTypeWalletCreated       = "wallet.created"
	EventTypeUserStatusChanged   = "user.status_changed"
)

// Aggregate types
const (
	AggregateTypeWallet      = "wallet"
	AggregateTypeUser        = "user"
	AggregateTypeTransaction = "transaction"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// BalanceChangedEvent is the payload of deposit and withdraw events.
type BalanceChangedEvent struct {
	TransactionID string `json:"transaction_id"`
	WalletID      string `json:"wallet_id"`
	ActorID       string `json:"actor_user_id"`
	AmountMinor   int64  `json:"amount_minor"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	BalanceMinor  int64  `json:"balance_minor"`
}

// TransferredEvent is the payload of wallet.transferred.
type TransferredEvent struct {
	TransactionID    string `json:"transaction_id"`
	SenderWalletID   string `json:"sender_wallet_id"`
	ReceiverWalletID string `json:"receiver_wallet_id"`
	AmountMinor      int64  `json:"amount_minor"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
}

// StatusChangedEvent is the payload of wallet and user status events.
type StatusChangedEvent struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	ActorID string `json:"actor_user_id"`
}

// Payload converts a typed event payload into the outbox representation.
func Payload(v any) map[string]any {
	return map[string]any(MarshalState(v))
}
