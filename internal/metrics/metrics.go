package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Authorization, compliance, and ledger counters for the oracle service.

var (
	// Authorization flow
	AuthorizeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "authorize",
		Name:      "requests_total",
		Help:      "Total sign-receive authorization requests by terminal outcome",
	}, []string{"outcome"})

	GrantsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "authorize",
		Name:      "grants_issued_total",
		Help:      "Total authorization grants issued",
	})

	SignLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oracle",
		Subsystem: "authorize",
		Name:      "sign_duration_seconds",
		Help:      "Message signing duration",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	NonceRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "authorize",
		Name:      "nonce_rejections_total",
		Help:      "Total sign attempts rejected because the (sender, nonce) pair was already consumed",
	})

	// Compliance gate
	ComplianceChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "compliance",
		Name:      "checks_total",
		Help:      "Total compliance evaluations by result",
	}, []string{"result"})

	ComplianceCheckLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oracle",
		Subsystem: "compliance",
		Name:      "check_duration_seconds",
		Help:      "Compliance evaluation duration including the risk oracle round trip",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	RiskOracleErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "compliance",
		Name:      "risk_oracle_errors_total",
		Help:      "Total risk oracle call failures (each one is a fail-closed denial)",
	})

	// Address registry
	RegistryAddsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "registry",
		Name:      "adds_total",
		Help:      "Total registry add operations by kind and outcome",
	}, []string{"kind", "outcome"})

	RegistrySize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "oracle",
		Subsystem: "registry",
		Name:      "size",
		Help:      "Current number of addresses per classification set",
	}, []string{"kind"})

	// Contract execution (phase 2)
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "execution",
		Name:      "submissions_total",
		Help:      "Total contract execution submissions by result",
	}, []string{"result"})

	// Outbound collaborator calls
	CollaboratorCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "collaborator",
		Name:      "calls_total",
		Help:      "Total outbound collaborator calls by client, method, and status",
	}, []string{"client", "method", "status"})

	RateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "collaborator",
		Name:      "rate_limit_waits_total",
		Help:      "Total outbound calls delayed by the client-side rate limiter",
	}, []string{"client"})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Total alerts sent by channel and type",
	}, []string{"channel", "type"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oracle",
		Subsystem: "alerts",
		Name:      "cooldown_skipped_total",
		Help:      "Total alerts suppressed by cooldown",
	}, []string{"channel", "type"})
)
