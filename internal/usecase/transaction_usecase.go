package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

// TransactionUseCase serves wallet history.
type TransactionUseCase struct {
	walletRepo      WalletRepository
	userRepo        UserRepository
	currencyRepo    CurrencyRepository
	transactionRepo TransactionRepository
	policy          domain.Policy
	logger          zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	walletRepo WalletRepository,
	userRepo UserRepository,
	currencyRepo CurrencyRepository,
	transactionRepo TransactionRepository,
	policy domain.Policy,
	logger zerolog.Logger,
) *TransactionUseCase {
	if policy == nil {
		policy = domain.RolePolicy{}
	}

	return &TransactionUseCase{
		walletRepo:      walletRepo,
		userRepo:        userRepo,
		currencyRepo:    currencyRepo,
		transactionRepo: transactionRepo,
		policy:          policy,
		logger:          logger,
	}
}

// ListByWallet returns the transactions touching a wallet, newest first.
// Incoming transfers are included.
func (uc *TransactionUseCase) ListByWallet(ctx context.Context, actorID, walletID string, limit, offset int) ([]*TransactionSnapshot, error) {
	list, err := uc.listByWallet(ctx, actorID, walletID, limit, offset)
	return list, classify(ctx, uc.logger, "transaction.list", err)
}

func (uc *TransactionUseCase) listByWallet(ctx context.Context, actorID, walletID string, limit, offset int) ([]*TransactionSnapshot, error) {
	actor, err := loadActor(ctx, nil, uc.userRepo, actorID)
	if err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByID(ctx, nil, walletID)
	if err != nil {
		return nil, err
	}

	if err := uc.policy.Allow(actor, domain.ActionViewWallet, domain.Resource{OwnerID: wallet.OwnerID}); err != nil {
		return nil, err
	}

	currency, err := uc.currencyRepo.GetByID(ctx, nil, wallet.CurrencyID)
	if err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	records, err := uc.transactionRepo.ListByWallet(ctx, walletID, limit, offset)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*TransactionSnapshot, 0, len(records))
	for _, r := range records {
		snapshots = append(snapshots, newTransactionSnapshot(r, currency))
	}

	return snapshots, nil
}
