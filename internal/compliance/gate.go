// Package compliance implements the gate that allows or denies a transfer
// based on risk signals about the sender.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Utkarsh575/wf-hack-misfits/internal/alert"
	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/metrics"
	"github.com/Utkarsh575/wf-hack-misfits/internal/registry"
	"github.com/Utkarsh575/wf-hack-misfits/internal/risk"
)

// DefaultThreshold is the risk score at and above which a wallet is denied.
const DefaultThreshold = 70

// Gate combines static registry membership and the external risk score
// into one verdict. Verdicts are derived fresh on every call; freshness
// matters more than hit rate for a compliance gate, so there is no cache.
type Gate struct {
	registry  *registry.Registry
	scorer    risk.Scorer
	threshold int
	timeout   time.Duration
	logger    *slog.Logger
	alerter   alert.Alerter
}

// Option configures optional gate dependencies.
type Option func(*Gate)

// WithAlerter enables operational alerts for oracle outages and
// flagged-address sign attempts.
func WithAlerter(a alert.Alerter) Option {
	return func(g *Gate) { g.alerter = a }
}

// WithTimeout bounds the risk oracle round trip. Default 10s.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

func NewGate(reg *registry.Registry, scorer risk.Scorer, threshold int, logger *slog.Logger, opts ...Option) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	g := &Gate{
		registry:  reg,
		scorer:    scorer,
		threshold: threshold,
		timeout:   10 * time.Second,
		logger:    logger.With("component", "compliance"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate computes the verdict for address. It never returns an error:
// every failure mode folds into a denial, because compliance is an
// allow-list by proof, not a deny-list by absence of evidence.
func (g *Gate) Evaluate(ctx context.Context, address string) *model.Verdict {
	start := time.Now()
	defer func() {
		metrics.ComplianceCheckLatency.Observe(time.Since(start).Seconds())
	}()

	// Static membership gates signing independently of the numeric score.
	if kinds := g.registry.Classify(address); len(kinds) > 0 {
		checks := make([]model.FailedCheck, 0, len(kinds))
		for _, kind := range kinds {
			checks = append(checks, model.FindingCheck(model.Finding{
				Type:    kind.String(),
				Wallet:  address,
				Message: fmt.Sprintf("address is on the %s list", kind),
			}))
		}
		metrics.ComplianceChecksTotal.WithLabelValues("denied_static").Inc()
		g.logger.Warn("flagged address denied", "address", address, "kinds", len(kinds))
		g.sendAlert(ctx, alert.Alert{
			Type:    alert.TypeFlaggedAttempt,
			Subject: address,
			Title:   "Sign attempt by flagged address",
			Message: fmt.Sprintf("address %s is on %d classification list(s)", address, len(kinds)),
		})
		return &model.Verdict{Address: address, Allowed: false, FailedChecks: checks}
	}

	scoreCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.scorer.Score(scoreCtx, address)
	if err != nil {
		// Fail closed. An unreachable oracle must never become an allow.
		metrics.ComplianceChecksTotal.WithLabelValues("denied_infra").Inc()
		metrics.RiskOracleErrorsTotal.Inc()
		g.logger.Error("risk oracle unavailable, failing closed", "address", address, "error", err)
		g.sendAlert(ctx, alert.Alert{
			Type:    alert.TypeOracleOutage,
			Subject: address,
			Title:   "Risk oracle unavailable",
			Message: "compliance checks are failing closed: " + err.Error(),
		})
		return &model.Verdict{
			Address: address,
			Allowed: false,
			FailedChecks: []model.FailedCheck{
				model.PlainCheck("risk score unavailable; failing closed"),
			},
		}
	}

	score := result.RiskScore
	if score >= g.threshold {
		checks := result.FailedChecks
		if len(checks) == 0 {
			checks = []model.FailedCheck{
				model.PlainCheck(fmt.Sprintf("risk score %d is at or above threshold %d", score, g.threshold)),
			}
		}
		metrics.ComplianceChecksTotal.WithLabelValues("denied_score").Inc()
		g.logger.Info("address denied by risk score", "address", address, "score", score, "threshold", g.threshold)
		return &model.Verdict{Address: address, Allowed: false, RiskScore: &score, FailedChecks: checks}
	}

	metrics.ComplianceChecksTotal.WithLabelValues("allowed").Inc()
	return &model.Verdict{Address: address, Allowed: true, RiskScore: &score}
}

func (g *Gate) sendAlert(ctx context.Context, a alert.Alert) {
	if g.alerter == nil {
		return
	}
	if err := g.alerter.Send(ctx, a); err != nil {
		g.logger.Warn("alert send failed", "type", a.Type, "error", err)
	}
}
