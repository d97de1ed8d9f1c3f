package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gowallet/internal/adapter/repository/redis"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/logger"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/infrastructure/redis"
	"github.com/iho/gowallet/internal/usecase"
)

// app carries what every command needs. open is replaced in tests.
type app struct {
	cfg         *config.Config
	logger      zerolog.Logger
	databaseURL string
	actor       string
	output      string
	open        func(ctx context.Context) (*services, error)
}

// repositories is the persistence layer the use cases run on.
type repositories struct {
	txManager    usecase.TransactionManager
	currencies   usecase.CurrencyRepository
	users        usecase.UserRepository
	wallets      usecase.WalletRepository
	transactions usecase.TransactionRepository
	outbox       usecase.OutboxRepository
	audit        usecase.AuditRepository
	ids          usecase.IDGenerator
}

type services struct {
	users          *usecase.UserUseCase
	wallets        *usecase.WalletUseCase
	currencies     *usecase.CurrencyUseCase
	reconciliation *usecase.ReconciliationUseCase
	userRepo       usecase.UserRepository
	close          func()
}

func main() {
	a := &app{}
	a.open = a.openPostgres

	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gowallet-cli",
		Short:         "GoWallet administration tool",
		Long:          `Operational commands for the wallet ledger: schema migrations, seeding, reconciliation and status changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.databaseURL, "database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&a.actor, "as", "admin", "Username or email of the administrator performing the change")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "table", "Output format: table or json")

	rootCmd.AddCommand(
		migrateCmd(a),
		seedCmd(a),
		reconcileCmd(a),
		userCmd(a),
		walletCmd(a),
		hashPasswordCmd(),
	)

	return rootCmd
}

func (a *app) init() error {
	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		a.cfg = cfg
		a.logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
	}
	if a.databaseURL != "" {
		a.cfg.DatabaseURL = a.databaseURL
	}
	if a.output != "table" && a.output != "json" {
		return fmt.Errorf("unknown output format %q", a.output)
	}
	return nil
}

func (a *app) openPostgres(ctx context.Context) (*services, error) {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    a.cfg.DatabaseURL,
		MaxConns:       2,
		MinConns:       1,
		ConnectTimeout: a.cfg.DatabaseTimeout,
		Logger:         a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	repos := repositories{
		txManager:    postgresRepo.NewTxManager(pool, a.cfg.LockTimeout),
		currencies:   postgresRepo.NewCurrencyRepository(pool),
		users:        postgresRepo.NewUserRepository(pool),
		wallets:      postgresRepo.NewWalletRepository(pool),
		transactions: postgresRepo.NewTransactionRepository(pool),
		outbox:       postgresRepo.NewOutboxRepository(pool),
		audit:        postgresRepo.NewAuditRepository(pool),
		ids:          postgresRepo.NewULIDGenerator(),
	}

	// Deactivation revokes sessions, which live in Redis.
	var sessions usecase.SessionStore
	closeFn := pool.Close
	if a.cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, a.cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		sessions = redisRepo.NewSessionStore(client)
		closeFn = func() {
			_ = client.Close()
			pool.Close()
		}
	}

	svc := buildServices(repos, sessions, a.cfg, a.logger)
	svc.close = closeFn
	return svc, nil
}

func buildServices(r repositories, sessions usecase.SessionStore, cfg *config.Config, log zerolog.Logger) *services {
	return &services{
		users: usecase.NewUserUseCase(usecase.UserDependencies{
			TxManager:       r.txManager,
			Users:           r.users,
			Wallets:         r.wallets,
			Currencies:      r.currencies,
			Outbox:          r.outbox,
			Audit:           r.audit,
			Sessions:        sessions,
			Hasher:          auth.NewBcryptHasher(cfg.BcryptCost),
			IDGen:           r.ids,
			Logger:          log,
			DefaultCurrency: cfg.DefaultCurrency,
		}),
		wallets:        usecase.NewWalletUseCase(r.txManager, r.wallets, r.users, r.currencies, r.outbox, r.audit, r.ids, nil, nil, log),
		currencies:     usecase.NewCurrencyUseCase(r.currencies, r.users, nil, r.ids, nil, log),
		reconciliation: usecase.NewReconciliationUseCase(r.txManager, r.wallets, r.transactions, r.currencies, nil, log),
		userRepo:       r.users,
		close:          func() {},
	}
}

// withServices opens the store for the duration of fn.
func (a *app) withServices(ctx context.Context, fn func(*services) error) error {
	svc, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer svc.close()

	return fn(svc)
}

// actorID resolves the --as flag to a user id.
func (a *app) actorID(ctx context.Context, svc *services) (string, error) {
	user, err := svc.userRepo.GetByIdentifier(ctx, nil, a.actor)
	if err != nil {
		return "", fmt.Errorf("resolve actor %q: %w", a.actor, err)
	}
	return user.ID, nil
}
