package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/usecase"
)

// backend is the persistence layer selected by LEDGER_STORE.
type backend struct {
	txManager    usecase.TransactionManager
	currencies   usecase.CurrencyRepository
	users        usecase.UserRepository
	wallets      usecase.WalletRepository
	transactions usecase.TransactionRepository
	outbox       usecase.OutboxRepository
	audit        usecase.AuditRepository
	ids          usecase.IDGenerator

	// retrier is nil for the memory store, which never deadlocks.
	retrier handler.Retrier
	checks  map[string]handler.Pinger
	close   func()
}

func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*backend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return openMemoryBackend(ctx, cfg, logger)
	default:
		return openPostgresBackend(ctx, cfg, logger)
	}
}

func openPostgresBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*backend, error) {
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	return &backend{
		txManager:    postgresRepo.NewTxManager(pool, cfg.LockTimeout),
		currencies:   postgresRepo.NewCurrencyRepository(pool),
		users:        postgresRepo.NewUserRepository(pool),
		wallets:      postgresRepo.NewWalletRepository(pool),
		transactions: postgresRepo.NewTransactionRepository(pool),
		outbox:       postgresRepo.NewOutboxRepository(pool),
		audit:        postgresRepo.NewAuditRepository(pool),
		ids:          postgresRepo.NewULIDGenerator(),
		retrier:      postgresRepo.NewRetrier(int(cfg.RetryMaxAttempts), logger),
		checks:       map[string]handler.Pinger{"postgres": pool},
		close:        pool.Close,
	}, nil
}

// openMemoryBackend builds a process-local store seeded with the default
// currency so registration works out of the box.
func openMemoryBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*backend, error) {
	store := memory.NewStore(cfg.LockTimeout)
	ids := memory.NewSequentialIDGenerator("mem")
	currencies := memory.NewCurrencyRepository(store)

	currency, err := domain.NewCurrency(ids.Generate(), cfg.DefaultCurrency, cfg.DefaultCurrency, 2, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("default currency: %w", err)
	}
	if err := currencies.Create(ctx, currency); err != nil {
		return nil, fmt.Errorf("seed default currency: %w", err)
	}

	logger.Warn().Str("currency", currency.Code).Msg("using in-memory store; state is lost on restart")

	return &backend{
		txManager:    store,
		currencies:   currencies,
		users:        memory.NewUserRepository(store),
		wallets:      memory.NewWalletRepository(store),
		transactions: memory.NewTransactionRepository(store),
		outbox:       memory.NewOutboxRepository(store),
		audit:        memory.NewAuditRepository(store),
		ids:          ids,
		checks:       map[string]handler.Pinger{"memory": store},
		close:        func() {},
	}, nil
}
