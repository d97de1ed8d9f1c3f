package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// ReconciliationUseCase compares stored wallet balances with the balances
// implied by the transaction log.
type ReconciliationUseCase struct {
	txManager       TransactionManager
	walletRepo      WalletRepository
	transactionRepo TransactionRepository
	currencyRepo    CurrencyRepository
	metrics         *metrics.Metrics
	logger          zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	transactionRepo TransactionRepository,
	currencyRepo CurrencyRepository,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:       txManager,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		currencyRepo:    currencyRepo,
		metrics:         metrics,
		logger:          logger,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	WalletID        string
	CurrencyCode    string
	RecordedBalance int64
	ExpectedBalance int64
	Difference      int64
	IsReconciled    bool
	LastChecked     time.Time
}

// ReconcileWallet checks one wallet. The wallet row is locked while its
// history is summed so no mutation can land in between.
func (uc *ReconciliationUseCase) ReconcileWallet(ctx context.Context, walletID string) (*ReconciliationResult, error) {
	result, err := uc.reconcileWallet(ctx, walletID)
	return result, classify(ctx, uc.logger, "reconcile.wallet", err)
}

func (uc *ReconciliationUseCase) reconcileWallet(ctx context.Context, walletID string) (*ReconciliationResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	wallet, err := uc.walletRepo.GetByIDForUpdate(txCtx, tx, walletID)
	if err != nil {
		return nil, err
	}

	flows, err := uc.transactionRepo.SumByWallet(txCtx, walletID)
	if err != nil {
		return nil, err
	}

	currency, err := uc.currencyRepo.GetByID(txCtx, tx, wallet.CurrencyID)
	if err != nil {
		return nil, err
	}

	expected := flows.ExpectedBalance()
	result := &ReconciliationResult{
		WalletID:        wallet.ID,
		CurrencyCode:    currency.Code,
		RecordedBalance: wallet.Balance,
		ExpectedBalance: expected,
		Difference:      wallet.Balance - expected,
		IsReconciled:    wallet.Balance == expected,
		LastChecked:     time.Now().UTC(),
	}

	if !result.IsReconciled {
		uc.logger.Error().
			Str("wallet_id", wallet.ID).
			Int64("recorded", result.RecordedBalance).
			Int64("expected", result.ExpectedBalance).
			Msg("wallet balance drift detected")

		if uc.metrics != nil {
			uc.metrics.ReconciliationMismatches.Inc()
		}
	}

	return result, nil
}

// ReconcileAllWallets reconciles every wallet, page by page.
func (uc *ReconciliationUseCase) ReconcileAllWallets(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	for offset := 0; ; offset += reconcilePageSize {
		wallets, err := uc.walletRepo.List(ctx, reconcilePageSize, offset)
		if err != nil {
			return nil, classify(ctx, uc.logger, "reconcile.all", err)
		}

		for _, w := range wallets {
			result, err := uc.ReconcileWallet(ctx, w.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile wallet %s: %w", w.ID, err)
			}
			results = append(results, result)
		}

		if len(wallets) < reconcilePageSize {
			return results, nil
		}
	}
}

// CurrencyTotals compares the money held in wallets of one currency with the
// net amount that entered the system through deposits and withdrawals.
// Transfers only move funds, so the two are equal when nothing leaked.
type CurrencyTotals struct {
	CurrencyCode string
	TotalBalance int64
	NetIssued    int64
	Conserved    bool
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalWallets      int
	ReconciledWallets int
	Discrepancies     []*ReconciliationResult
	Totals            []*CurrencyTotals
	CheckedAt         time.Time
}

// Consistent reports whether every wallet reconciled and every currency
// conserved its funds.
func (r *ReconciliationReport) Consistent() bool {
	if len(r.Discrepancies) > 0 {
		return false
	}
	for _, t := range r.Totals {
		if !t.Conserved {
			return false
		}
	}
	return true
}

// Err returns domain.ErrReconciliationFailure when the report is not consistent.
func (r *ReconciliationReport) Err() error {
	if r.Consistent() {
		return nil
	}
	return fmt.Errorf("%w: %d of %d wallets drifted", domain.ErrReconciliationFailure, len(r.Discrepancies), r.TotalWallets)
}

// GenerateReconciliationReport generates a comprehensive reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllWallets(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalWallets:  len(results),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	totals := make(map[string]*CurrencyTotals)
	var order []string

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledWallets++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}

		flows, err := uc.transactionRepo.SumByWallet(ctx, result.WalletID)
		if err != nil {
			return nil, classify(ctx, uc.logger, "reconcile.report", err)
		}

		t, ok := totals[result.CurrencyCode]
		if !ok {
			t = &CurrencyTotals{CurrencyCode: result.CurrencyCode}
			totals[result.CurrencyCode] = t
			order = append(order, result.CurrencyCode)
		}
		t.TotalBalance += result.RecordedBalance
		t.NetIssued += flows.Deposits - flows.Withdrawals
	}

	for _, code := range order {
		t := totals[code]
		t.Conserved = t.TotalBalance == t.NetIssued
		report.Totals = append(report.Totals, t)
	}

	return report, nil
}
