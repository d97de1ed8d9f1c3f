package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// Ledger operation names used in logs and metrics.
const (
	OperationDeposit  = "deposit"
	OperationWithdraw = "withdraw"
	OperationTransfer = "transfer"
)

// LedgerUseCase is the only component that mutates wallet balances.
// Every operation runs as one unit of work: wallet rows are locked, state is
// validated and mutated, and the transaction record and outbox event are
// written before a single commit.
type LedgerUseCase struct {
	txManager       TransactionManager
	walletRepo      WalletRepository
	userRepo        UserRepository
	currencyRepo    CurrencyRepository
	transactionRepo TransactionRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
	policy          domain.Policy
	metrics         *metrics.Metrics
	logger          zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	userRepo UserRepository,
	currencyRepo CurrencyRepository,
	transactionRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	policy domain.Policy,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *LedgerUseCase {
	if policy == nil {
		policy = domain.RolePolicy{}
	}

	return &LedgerUseCase{
		txManager:       txManager,
		walletRepo:      walletRepo,
		userRepo:        userRepo,
		currencyRepo:    currencyRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		idGen:           idGen,
		policy:          policy,
		metrics:         metrics,
		logger:          logger,
	}
}

// BalanceInput is the input of a single wallet deposit or withdrawal.
type BalanceInput struct {
	ActorID        string
	WalletID       string
	Amount         decimal.Decimal
	IdempotencyKey string
}

type (
	DepositInput  = BalanceInput
	WithdrawInput = BalanceInput
)

// BalanceResult is the outcome of a deposit or withdrawal. Replayed is set
// when the idempotency key matched an already recorded transaction.
type BalanceResult struct {
	Wallet      *WalletSnapshot
	Transaction *TransactionSnapshot
	Replayed    bool
}

type (
	DepositResult  = BalanceResult
	WithdrawResult = BalanceResult
)

// TransferInput is the input of a P2P transfer.
type TransferInput struct {
	ActorID            string
	SenderWalletID     string
	ReceiverIdentifier string
	Amount             decimal.Decimal
	Description        string
	IdempotencyKey     string
}

// TransferResult is the outcome of a P2P transfer.
type TransferResult struct {
	Sender      *WalletSnapshot
	Receiver    *WalletSnapshot
	Transaction *TransactionSnapshot
	Replayed    bool
}

// Deposit credits a wallet.
func (uc *LedgerUseCase) Deposit(ctx context.Context, input DepositInput) (*DepositResult, error) {
	return uc.changeBalance(ctx, OperationDeposit, domain.TransactionTypeDeposit, input)
}

// Withdraw debits a wallet. The balance check and the decrement happen under
// the same row lock.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, input WithdrawInput) (*WithdrawResult, error) {
	return uc.changeBalance(ctx, OperationWithdraw, domain.TransactionTypeWithdraw, input)
}

func (uc *LedgerUseCase) changeBalance(
	ctx context.Context,
	op string,
	typ domain.TransactionType,
	input BalanceInput,
) (*BalanceResult, error) {
	started := time.Now()

	result, err := uc.runBalanceChange(ctx, typ, input)
	if errors.Is(err, domain.ErrDuplicateTransaction) {
		// A concurrent request with the same key committed first.
		result, err = uc.replayBalanceChange(ctx, nil, typ, input)
	}

	err = classify(ctx, uc.logger, op, err)
	uc.metrics.ObserveLedgerOperation(op, started, err)

	if err != nil {
		return nil, err
	}

	uc.observeAmount(op, result.Replayed, result.Wallet, result.Transaction)

	return result, nil
}

func (uc *LedgerUseCase) runBalanceChange(ctx context.Context, typ domain.TransactionType, input BalanceInput) (*BalanceResult, error) {
	if err := validateIdempotencyKey(input.IdempotencyKey); err != nil {
		return nil, err
	}

	action := domain.ActionDeposit
	if typ == domain.TransactionTypeWithdraw {
		action = domain.ActionWithdraw
	}

	// Bounds the unit of work, including lock waits on wallet rows.
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	actor, err := loadActor(txCtx, tx, uc.userRepo, input.ActorID)
	if err != nil {
		return nil, err
	}

	if err := uc.policy.Allow(actor, action, domain.Resource{}); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != "" {
		replay, err := uc.replayBalanceChange(txCtx, tx, typ, input)
		if err == nil {
			return replay, nil
		}
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
	}

	// 1. Lock wallet
	wallet, err := uc.walletRepo.GetByIDForUpdate(txCtx, tx, input.WalletID)
	if err != nil {
		return nil, err
	}

	// 2. Owner must be active
	owner, err := uc.userRepo.GetByID(txCtx, tx, wallet.OwnerID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := owner.EnsureActive(); err != nil {
		return nil, err
	}

	// 3. Wallet must be active
	if err := wallet.EnsureActive(); err != nil {
		return nil, err
	}

	// 4. Convert amount
	currency, err := uc.currencyRepo.GetByID(txCtx, tx, wallet.CurrencyID)
	if err != nil {
		return nil, err
	}

	amount, err := domain.ToMinorUnits(input.Amount, currency.DecimalPlaces)
	if err != nil {
		return nil, err
	}

	// 5. Mutate balance
	var newBalance int64
	var eventType, description string
	switch typ {
	case domain.TransactionTypeWithdraw:
		if err := wallet.ValidateDebit(amount); err != nil {
			return nil, err
		}
		newBalance = wallet.ApplyDebit(amount)
		eventType = domain.EventTypeWalletWithdrawn
		description = domain.DefaultWithdrawDescription
	default:
		if err := wallet.ValidateCredit(amount); err != nil {
			return nil, err
		}
		newBalance = wallet.ApplyCredit(amount)
		eventType = domain.EventTypeWalletDeposited
		description = domain.DefaultDepositDescription
	}

	now := time.Now().UTC()
	if err := uc.walletRepo.UpdateBalance(txCtx, tx, wallet.ID, newBalance, now); err != nil {
		return nil, err
	}

	wallet.Balance = newBalance
	wallet.UpdatedAt = now

	// 6. Append transaction record
	record := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		ActorID:        actor.ID,
		WalletID:       wallet.ID,
		Amount:         amount,
		Type:           typ,
		Description:    description,
		Status:         domain.TransactionStatusComplete,
		IdempotencyKey: input.IdempotencyKey,
		OccurredAt:     now,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := uc.transactionRepo.Create(txCtx, tx, record); err != nil {
		return nil, err
	}

	payload := domain.BalanceChangedEvent{
		TransactionID: record.ID,
		WalletID:      wallet.ID,
		ActorID:       actor.ID,
		AmountMinor:   amount,
		Amount:        domain.FormatMinorUnits(amount, currency.DecimalPlaces),
		Currency:      currency.Code,
		BalanceMinor:  newBalance,
	}
	if err := writeEvent(txCtx, tx, uc.outboxRepo, uc.idGen, domain.AggregateTypeWallet, wallet.ID, eventType, payload, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	// 7. Snapshots
	return &BalanceResult{
		Wallet:      newWalletSnapshot(wallet, currency),
		Transaction: newTransactionSnapshot(record, currency),
	}, nil
}

// replayBalanceChange returns the transaction previously recorded under the
// input's idempotency key together with the wallet's current state.
func (uc *LedgerUseCase) replayBalanceChange(ctx context.Context, tx Transaction, typ domain.TransactionType, input BalanceInput) (*BalanceResult, error) {
	record, err := uc.transactionRepo.GetByIdempotencyKey(ctx, tx, input.ActorID, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByID(ctx, tx, record.WalletID)
	if err != nil {
		return nil, err
	}

	currency, err := uc.currencyRepo.GetByID(ctx, tx, wallet.CurrencyID)
	if err != nil {
		return nil, err
	}

	amount, err := domain.ToMinorUnits(input.Amount, currency.DecimalPlaces)
	if err != nil {
		return nil, err
	}

	if !record.Matches(typ, input.WalletID, amount) {
		return nil, domain.ErrIdempotencyKeyReused
	}

	return &BalanceResult{
		Wallet:      newWalletSnapshot(wallet, currency),
		Transaction: newTransactionSnapshot(record, currency),
		Replayed:    true,
	}, nil
}

// Transfer moves funds between two wallets of the same currency.
//
// The receiver wallet id is resolved without locks first so that both wallet
// rows can be locked together in ascending id order. Validation then runs on
// the locked rows in a fixed sequence; resolution failures are reported at
// their place in that sequence.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	started := time.Now()

	result, err := uc.runTransfer(ctx, input)
	if errors.Is(err, domain.ErrDuplicateTransaction) {
		result, err = uc.replayTransfer(ctx, nil, input)
	}

	err = classify(ctx, uc.logger, OperationTransfer, err)
	uc.metrics.ObserveLedgerOperation(OperationTransfer, started, err)

	if err != nil {
		return nil, err
	}

	uc.observeAmount(OperationTransfer, result.Replayed, result.Sender, result.Transaction)

	return result, nil
}

func (uc *LedgerUseCase) runTransfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if err := validateIdempotencyKey(input.IdempotencyKey); err != nil {
		return nil, err
	}

	if err := domain.ValidateIdentifier(input.ReceiverIdentifier); err != nil {
		return nil, err
	}

	description, err := domain.ValidateDescription(input.Description)
	if err != nil {
		return nil, err
	}

	// Bounds the unit of work, including lock waits on wallet rows.
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	actor, err := loadActor(txCtx, tx, uc.userRepo, input.ActorID)
	if err != nil {
		return nil, err
	}

	if input.IdempotencyKey != "" {
		replay, err := uc.replayTransfer(txCtx, tx, input)
		if err == nil {
			return replay, nil
		}
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
	}

	// Resolve the receiver wallet without locking.
	senderView, err := uc.walletRepo.GetByID(txCtx, tx, input.SenderWalletID)
	if err != nil {
		return nil, err
	}

	receiverUser, receiverWalletID, resolveErr := uc.resolveReceiver(txCtx, tx, input.ReceiverIdentifier, senderView.CurrencyID)
	if resolveErr != nil && !errors.Is(resolveErr, domain.ErrReceiverNotFound) && !errors.Is(resolveErr, domain.ErrReceiverWalletNotFound) {
		return nil, resolveErr
	}

	ids := []string{input.SenderWalletID}
	if receiverWalletID != "" && receiverWalletID != input.SenderWalletID {
		ids = append(ids, receiverWalletID)
	}

	// Lock both wallets in ascending id order (DEADLOCK PREVENTION)
	locked, err := uc.walletRepo.GetByIDsForUpdate(txCtx, tx, ids)
	if err != nil {
		return nil, err
	}

	walletMap := make(map[string]*domain.Wallet, len(locked))
	for _, w := range locked {
		walletMap[w.ID] = w
	}

	// 1. Sender exists and is active
	sender := walletMap[input.SenderWalletID]
	if sender == nil {
		return nil, domain.ErrWalletNotFound
	}

	if err := sender.EnsureActive(); err != nil {
		return nil, err
	}

	// 2. Actor owns the sender wallet
	if err := uc.policy.Allow(actor, domain.ActionTransfer, domain.Resource{OwnerID: sender.OwnerID}); err != nil {
		return nil, err
	}

	// 3. Balance covers the amount
	currency, err := uc.currencyRepo.GetByID(txCtx, tx, sender.CurrencyID)
	if err != nil {
		return nil, err
	}

	amount, err := domain.ToMinorUnits(input.Amount, currency.DecimalPlaces)
	if err != nil {
		return nil, err
	}

	if err := sender.ValidateDebit(amount); err != nil {
		return nil, err
	}

	// 4. Receiver user exists and is active
	if errors.Is(resolveErr, domain.ErrReceiverNotFound) {
		return nil, resolveErr
	}

	if err := receiverUser.EnsureActive(); err != nil {
		return nil, err
	}

	// 5. Receiver has a wallet in the sender's currency
	if resolveErr != nil {
		return nil, resolveErr
	}

	// 6. Receiver wallet is active
	receiver := walletMap[receiverWalletID]
	if receiver == nil {
		return nil, domain.ErrReceiverWalletNotFound
	}

	if err := receiver.EnsureActive(); err != nil {
		return nil, err
	}

	if receiver.CurrencyID != sender.CurrencyID {
		return nil, domain.ErrCurrencyMismatch
	}

	// 7. Distinct wallets
	if receiver.ID == sender.ID {
		return nil, domain.ErrSameWalletTransfer
	}

	// 8-9. Move funds
	if err := receiver.ValidateCredit(amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	senderBalance := sender.ApplyDebit(amount)
	receiverBalance := receiver.ApplyCredit(amount)

	if err := uc.walletRepo.UpdateBalance(txCtx, tx, sender.ID, senderBalance, now); err != nil {
		return nil, err
	}

	if err := uc.walletRepo.UpdateBalance(txCtx, tx, receiver.ID, receiverBalance, now); err != nil {
		return nil, err
	}

	sender.Balance, sender.UpdatedAt = senderBalance, now
	receiver.Balance, receiver.UpdatedAt = receiverBalance, now

	// 10. Append transaction record
	if description == "" {
		description = domain.DefaultTransferDescription(receiverUser.Username)
	}

	relatedID := receiver.ID
	record := &domain.Transaction{
		ID:              uc.idGen.Generate(),
		ActorID:         actor.ID,
		WalletID:        sender.ID,
		RelatedWalletID: &relatedID,
		Amount:          amount,
		Type:            domain.TransactionTypeTransfer,
		Description:     description,
		Status:          domain.TransactionStatusComplete,
		IdempotencyKey:  input.IdempotencyKey,
		OccurredAt:      now,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := uc.transactionRepo.Create(txCtx, tx, record); err != nil {
		return nil, err
	}

	payload := domain.TransferredEvent{
		TransactionID:    record.ID,
		SenderWalletID:   sender.ID,
		ReceiverWalletID: receiver.ID,
		AmountMinor:      amount,
		Amount:           domain.FormatMinorUnits(amount, currency.DecimalPlaces),
		Currency:         currency.Code,
	}
	if err := writeEvent(txCtx, tx, uc.outboxRepo, uc.idGen, domain.AggregateTypeTransaction, record.ID, domain.EventTypeWalletTransferred, payload, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	// 11. Snapshots
	return &TransferResult{
		Sender:      newWalletSnapshot(sender, currency),
		Receiver:    newWalletSnapshot(receiver, currency),
		Transaction: newTransactionSnapshot(record, currency),
	}, nil
}

// resolveReceiver finds the receiver user and their wallet in currencyID.
// The user is returned even when the wallet lookup fails.
func (uc *LedgerUseCase) resolveReceiver(ctx context.Context, tx Transaction, identifier, currencyID string) (*domain.User, string, error) {
	user, err := uc.userRepo.GetByIdentifier(ctx, tx, identifier)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", domain.ErrReceiverNotFound
	}
	if err != nil {
		return nil, "", err
	}

	wallet, err := uc.walletRepo.GetByOwnerAndCurrency(ctx, tx, user.ID, currencyID)
	if errors.Is(err, domain.ErrWalletNotFound) {
		return user, "", domain.ErrReceiverWalletNotFound
	}
	if err != nil {
		return nil, "", err
	}

	return user, wallet.ID, nil
}

func (uc *LedgerUseCase) replayTransfer(ctx context.Context, tx Transaction, input TransferInput) (*TransferResult, error) {
	record, err := uc.transactionRepo.GetByIdempotencyKey(ctx, tx, input.ActorID, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	sender, err := uc.walletRepo.GetByID(ctx, tx, record.WalletID)
	if err != nil {
		return nil, err
	}

	currency, err := uc.currencyRepo.GetByID(ctx, tx, sender.CurrencyID)
	if err != nil {
		return nil, err
	}

	amount, err := domain.ToMinorUnits(input.Amount, currency.DecimalPlaces)
	if err != nil {
		return nil, err
	}

	if !record.Matches(domain.TransactionTypeTransfer, input.SenderWalletID, amount) {
		return nil, domain.ErrIdempotencyKeyReused
	}

	receiver, err := uc.walletRepo.GetByID(ctx, tx, record.CounterpartyID())
	if err != nil {
		return nil, err
	}

	return &TransferResult{
		Sender:      newWalletSnapshot(sender, currency),
		Receiver:    newWalletSnapshot(receiver, currency),
		Transaction: newTransactionSnapshot(record, currency),
		Replayed:    true,
	}, nil
}

func (uc *LedgerUseCase) observeAmount(op string, replayed bool, wallet *WalletSnapshot, record *TransactionSnapshot) {
	if uc.metrics == nil {
		return
	}

	if replayed {
		uc.metrics.IdempotentReplays.WithLabelValues(op).Inc()
		return
	}

	amount := domain.ToDecimal(record.AmountMinor, wallet.DecimalPlaces)
	uc.metrics.LedgerAmount.WithLabelValues(op, wallet.CurrencyCode).Observe(amount.InexactFloat64())
}
