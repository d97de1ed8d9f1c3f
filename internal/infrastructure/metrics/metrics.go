package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/gowallet/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	LedgerOperations  *prometheus.CounterVec
	LedgerDuration    *prometheus.HistogramVec
	LedgerAmount      *prometheus.HistogramVec
	IdempotentReplays *prometheus.CounterVec
	LockTimeouts      prometheus.Counter

	// Wallet and user metrics
	WalletsCreated  prometheus.Counter
	UsersRegistered prometheus.Counter
	StatusChanges   *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter

	// Reconciliation metrics
	ReconciliationMismatches prometheus.Counter

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates all Prometheus metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LedgerOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_ledger_operations_total",
				Help: "Total ledger operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		LedgerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LedgerAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_ledger_amount",
				Help:    "Amounts moved by ledger operations, in display units",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"operation", "currency"},
		),
		IdempotentReplays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_idempotent_replays_total",
				Help: "Ledger requests answered from a previously recorded transaction",
			},
			[]string{"operation"},
		),
		LockTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_lock_timeouts_total",
			Help: "Total operations aborted while waiting for a row lock",
		}),

		WalletsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_wallets_created_total",
			Help: "Total number of wallets created",
		}),
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_users_registered_total",
			Help: "Total number of registered users",
		}),
		StatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_status_changes_total",
				Help: "Wallet and user status transitions",
			},
			[]string{"resource", "status"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gowallet_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		}),

		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),

		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_outbox_failures_total",
			Help: "Total outbox events that failed to publish",
		}),

		ReconciliationMismatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_reconciliation_mismatches_total",
			Help: "Wallets whose balance disagrees with their transaction history",
		}),

		AuditLogsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}

// ObserveLedgerOperation records the outcome and latency of a ledger operation.
func (m *Metrics) ObserveLedgerOperation(operation string, started time.Time, err error) {
	if m == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = domain.Kind(err)
	}

	m.LedgerOperations.WithLabelValues(operation, outcome).Inc()
	m.LedgerDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())

	if outcome == "lock_timeout" {
		m.LockTimeouts.Inc()
	}
}
