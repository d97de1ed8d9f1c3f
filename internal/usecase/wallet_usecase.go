package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// WalletUseCase handles wallet lifecycle operations.
type WalletUseCase struct {
	txManager    TransactionManager
	walletRepo   WalletRepository
	userRepo     UserRepository
	currencyRepo CurrencyRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	policy       domain.Policy
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	userRepo UserRepository,
	currencyRepo CurrencyRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	policy domain.Policy,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *WalletUseCase {
	if policy == nil {
		policy = domain.RolePolicy{}
	}

	return &WalletUseCase{
		txManager:    txManager,
		walletRepo:   walletRepo,
		userRepo:     userRepo,
		currencyRepo: currencyRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		idGen:        idGen,
		policy:       policy,
		metrics:      metrics,
		logger:       logger,
	}
}

// CreateWallet opens a wallet for the actor in the given currency.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, actorID, currencyID string) (*WalletSnapshot, error) {
	snapshot, err := uc.createWallet(ctx, actorID, currencyID)
	return snapshot, classify(ctx, uc.logger, "wallet.create", err)
}

func (uc *WalletUseCase) createWallet(ctx context.Context, actorID, currencyID string) (*WalletSnapshot, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	actor, err := loadActor(txCtx, tx, uc.userRepo, actorID)
	if err != nil {
		return nil, err
	}

	if err := uc.policy.Allow(actor, domain.ActionCreateWallet, domain.Resource{OwnerID: actor.ID}); err != nil {
		return nil, err
	}

	currency, err := uc.currencyRepo.GetByID(txCtx, tx, currencyID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wallet, err := openWallet(txCtx, tx, uc.walletRepo, uc.idGen, actor.ID, currency, now)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"wallet_id": wallet.ID, "owner_id": actor.ID, "currency": currency.Code}
	if err := writeEvent(txCtx, tx, uc.outboxRepo, uc.idGen, domain.AggregateTypeWallet, wallet.ID, domain.EventTypeWalletCreated, payload, now); err != nil {
		return nil, err
	}

	if err := writeAudit(txCtx, tx, uc.auditRepo, uc.idGen, auditEntry{
		actorID:      actor.ID,
		action:       domain.AuditActionWalletCreate,
		resourceType: domain.AggregateTypeWallet,
		resourceID:   wallet.ID,
		after:        wallet,
	}, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}

	return newWalletSnapshot(wallet, currency), nil
}

// openWallet creates an empty wallet unless the owner already holds one in
// the currency.
func openWallet(ctx context.Context, tx Transaction, wallets WalletRepository, idGen IDGenerator, ownerID string, currency *domain.Currency, now time.Time) (*domain.Wallet, error) {
	_, err := wallets.GetByOwnerAndCurrency(ctx, tx, ownerID, currency.ID)
	if err == nil {
		return nil, domain.ErrWalletExists
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, err
	}

	wallet := domain.NewWallet(idGen.Generate(), ownerID, currency.ID, now)
	if err := wallets.Create(ctx, tx, wallet); err != nil {
		return nil, err
	}

	return wallet, nil
}

// GetWallet returns a wallet visible to the actor.
func (uc *WalletUseCase) GetWallet(ctx context.Context, actorID, walletID string) (*WalletSnapshot, error) {
	snapshot, err := uc.getWallet(ctx, actorID, walletID)
	return snapshot, classify(ctx, uc.logger, "wallet.get", err)
}

func (uc *WalletUseCase) getWallet(ctx context.Context, actorID, walletID string) (*WalletSnapshot, error) {
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

	return newWalletSnapshot(wallet, currency), nil
}

// ListWallets lists the wallets of ownerID.
func (uc *WalletUseCase) ListWallets(ctx context.Context, actorID, ownerID string) ([]*WalletSnapshot, error) {
	snapshots, err := uc.listWallets(ctx, actorID, ownerID)
	return snapshots, classify(ctx, uc.logger, "wallet.list", err)
}

func (uc *WalletUseCase) listWallets(ctx context.Context, actorID, ownerID string) ([]*WalletSnapshot, error) {
	actor, err := loadActor(ctx, nil, uc.userRepo, actorID)
	if err != nil {
		return nil, err
	}

	if err := uc.policy.Allow(actor, domain.ActionViewWallet, domain.Resource{OwnerID: ownerID}); err != nil {
		return nil, err
	}

	if _, err := uc.userRepo.GetByID(ctx, nil, ownerID); err != nil {
		return nil, err
	}

	return listWalletSnapshots(ctx, uc.walletRepo, uc.currencyRepo, ownerID)
}

func listWalletSnapshots(ctx context.Context, wallets WalletRepository, currencies CurrencyRepository, ownerID string) ([]*WalletSnapshot, error) {
	list, err := wallets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Currency)
	snapshots := make([]*WalletSnapshot, 0, len(list))
	for _, w := range list {
		currency, ok := byID[w.CurrencyID]
		if !ok {
			currency, err = currencies.GetByID(ctx, nil, w.CurrencyID)
			if err != nil {
				return nil, err
			}
			byID[w.CurrencyID] = currency
		}
		snapshots = append(snapshots, newWalletSnapshot(w, currency))
	}

	return snapshots, nil
}

// SetWalletStatus freezes or reactivates a wallet. The wallet row is locked
// so status changes serialize with balance mutations.
func (uc *WalletUseCase) SetWalletStatus(ctx context.Context, actorID, walletID string, status domain.WalletStatus) (*WalletSnapshot, error) {
	snapshot, err := uc.setWalletStatus(ctx, actorID, walletID, status)
	return snapshot, classify(ctx, uc.logger, "wallet.set_status", err)
}

func (uc *WalletUseCase) setWalletStatus(ctx context.Context, actorID, walletID string, status domain.WalletStatus) (*WalletSnapshot, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	actor, err := loadActor(txCtx, tx, uc.userRepo, actorID)
	if err != nil {
		return nil, err
	}

	if err := uc.policy.Allow(actor, domain.ActionSetWalletStatus, domain.Resource{}); err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByIDForUpdate(txCtx, tx, walletID)
	if err != nil {
		return nil, err
	}

	before := *wallet
	now := time.Now().UTC()
	if err := wallet.Transition(status, now); err != nil {
		return nil, err
	}

	if err := uc.walletRepo.UpdateStatus(txCtx, tx, wallet.ID, wallet.Status, now); err != nil {
		return nil, err
	}

	payload := domain.StatusChangedEvent{ID: wallet.ID, From: string(before.Status), To: string(wallet.Status), ActorID: actor.ID}
	if err := writeEvent(txCtx, tx, uc.outboxRepo, uc.idGen, domain.AggregateTypeWallet, wallet.ID, domain.EventTypeWalletStatusChanged, payload, now); err != nil {
		return nil, err
	}

	action := domain.AuditActionWalletActivate
	if status == domain.WalletStatusFrozen {
		action = domain.AuditActionWalletFreeze
	}

	if err := writeAudit(txCtx, tx, uc.auditRepo, uc.idGen, auditEntry{
		actorID:      actor.ID,
		action:       action,
		resourceType: domain.AggregateTypeWallet,
		resourceID:   wallet.ID,
		before:       before,
		after:        wallet,
	}, now); err != nil {
		return nil, err
	}

	currency, err := uc.currencyRepo.GetByID(txCtx, tx, wallet.CurrencyID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.StatusChanges.WithLabelValues(domain.AggregateTypeWallet, string(status)).Inc()
		uc.metrics.AuditLogsCreated.WithLabelValues(string(action), string(domain.AuditStatusSuccess)).Inc()
	}

	return newWalletSnapshot(wallet, currency), nil
}
