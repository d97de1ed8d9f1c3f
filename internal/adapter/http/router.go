package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler        *handler.AuthHandler
	UserHandler        *handler.UserHandler
	WalletHandler      *handler.WalletHandler
	CurrencyHandler    *handler.CurrencyHandler
	LedgerHandler      *handler.LedgerHandler
	TransactionHandler *handler.TransactionHandler
	HealthHandler      *handler.HealthHandler

	Authenticator *middleware.Authenticator

	// Optional
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	Logger           zerolog.Logger

	// LedgerTimeout bounds deposit, withdraw and p2p requests. Zero disables it.
	LedgerTimeout time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestInfo)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	limited := func(r chi.Router) chi.Router {
		if cfg.RateLimiter == nil {
			return r
		}
		return r.With(cfg.RateLimiter.Limit)
	}

	// Public
	limited(r).Post("/register", cfg.AuthHandler.Register)
	limited(r).Post("/login", cfg.AuthHandler.Login)
	r.Get("/currencies", cfg.CurrencyHandler.List)

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(cfg.Authenticator.Wrap)

		r.Get("/me", cfg.AuthHandler.Me)
		r.Post("/logout", cfg.AuthHandler.Logout)

		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", cfg.WalletHandler.Create)
			r.Get("/", cfg.WalletHandler.List)
			r.Get("/{id}", cfg.WalletHandler.Get)
			r.Get("/{id}/transactions", cfg.TransactionHandler.ListByWallet)

			r.With(middleware.RequireRole(domain.RoleAdmin)).Post("/{id}/freeze", cfg.WalletHandler.Freeze)
			r.With(middleware.RequireRole(domain.RoleAdmin)).Post("/{id}/activate", cfg.WalletHandler.Activate)
		})

		r.Get("/users/{id}/wallets", cfg.WalletHandler.ListByOwner)

		r.Route("/transactions", func(r chi.Router) {
			if cfg.LedgerTimeout > 0 {
				r.Use(chimiddleware.Timeout(cfg.LedgerTimeout))
			}
			if cfg.IdempotencyStore != nil {
				r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
			}

			staff := r.With(middleware.RequireRole(domain.RoleEmployee, domain.RoleAdmin))
			staff.Post("/deposit", cfg.LedgerHandler.Deposit)
			staff.Post("/withdraw", cfg.LedgerHandler.Withdraw)

			limited(r).Post("/p2p", cfg.LedgerHandler.Transfer)
		})

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Post("/currencies", cfg.CurrencyHandler.Create)
			r.Get("/users", cfg.UserHandler.List)
			r.Post("/users/{id}/promote", cfg.UserHandler.Promote)
			r.Post("/users/{id}/deactivate", cfg.UserHandler.Deactivate)
			r.Post("/users/{id}/activate", cfg.UserHandler.Activate)
		})
	})

	return r
}
