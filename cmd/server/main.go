package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/gowallet/internal/adapter/http"
	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	redisRepo "github.com/iho/gowallet/internal/adapter/repository/redis"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/eventpublisher"
	"github.com/iho/gowallet/internal/infrastructure/logger"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/infrastructure/redis"
	"github.com/iho/gowallet/internal/usecase"
)

const (
	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 10 * time.Minute
	outboxStreamMaxLen     = 100000
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	var (
		redisClient goredis.UniversalClient
		sessions    usecase.SessionStore
		idempotency usecase.IdempotencyStore
		cache       usecase.Cache
		checker     middleware.SessionChecker
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClientWithOptions(ctx, cfg.RedisURL, redis.Options{
			ConnectTimeout: cfg.DatabaseTimeout,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		log.Info().Msg("connected to redis")

		redisClient = client
		sessionStore := redisRepo.NewSessionStore(client)
		sessions, checker = sessionStore, sessionStore
		idempotency = redisRepo.NewIdempotencyStore(client)
		cache = redisRepo.NewCache(client)
		store.checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	} else {
		log.Warn().Msg("REDIS_URL is empty; sessions, idempotency and caching are disabled")
	}

	var (
		m              *metrics.Metrics
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	// Use cases
	currencyUC := usecase.NewCurrencyUseCase(store.currencies, store.users, cache, store.ids, nil, log)
	userUC := usecase.NewUserUseCase(usecase.UserDependencies{
		TxManager:       store.txManager,
		Users:           store.users,
		Wallets:         store.wallets,
		Currencies:      store.currencies,
		Outbox:          store.outbox,
		Audit:           store.audit,
		Sessions:        sessions,
		Tokens:          jwtManager,
		Hasher:          hasher,
		IDGen:           store.ids,
		Metrics:         m,
		Logger:          log,
		DefaultCurrency: cfg.DefaultCurrency,
	})
	walletUC := usecase.NewWalletUseCase(store.txManager, store.wallets, store.users, store.currencies, store.outbox, store.audit, store.ids, nil, m, log)
	ledgerUC := usecase.NewLedgerUseCase(store.txManager, store.wallets, store.users, store.currencies, store.transactions, store.outbox, store.ids, nil, m, log)
	transactionUC := usecase.NewTransactionUseCase(store.wallets, store.users, store.currencies, store.transactions, nil, log)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:        handler.NewAuthHandler(userUC),
		UserHandler:        handler.NewUserHandler(userUC),
		WalletHandler:      handler.NewWalletHandler(walletUC, currencyUC),
		CurrencyHandler:    handler.NewCurrencyHandler(currencyUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC, store.retrier),
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		HealthHandler:      handler.NewHealthHandler(store.checks),
		Authenticator:      middleware.NewAuthenticator(jwtManager, checker),
		IdempotencyStore:   idempotency,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		LedgerTimeout:      cfg.TransactionTimeout,
		RateLimiter:        rateLimiter,
		Metrics:            m,
		MetricsHandler:     metricsHandler,
		Logger:             log,
	})

	server := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("store", cfg.Store).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.outbox,
			Publisher:  outboxPublisher(redisClient, cfg.OutboxStream, log),
			Metrics:    m,
			Logger:     log,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		g.Go(func() error {
			return ignoreCanceled(publisher.Start(gctx))
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := rateLimiter.CleanupLimiters(limiterMaxIdle); n > 0 {
					log.Debug().Int("removed", n).Msg("evicted idle rate limiters")
				}
			}
		}
	})

	return g.Wait()
}

func listenAddr(port string) string {
	return fmt.Sprintf(":%s", port)
}

// outboxPublisher appends events to a Redis stream when one is configured and
// falls back to logging them.
func outboxPublisher(client goredis.UniversalClient, stream string, log zerolog.Logger) eventpublisher.Publisher {
	if client == nil || stream == "" {
		return eventpublisher.NewLogPublisher(log)
	}
	return eventpublisher.NewStreamPublisher(client, stream, outboxStreamMaxLen)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
