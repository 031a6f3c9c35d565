// Package coordinator orchestrates the two-phase authorization flow:
// obtain a signed grant, then submit a contract execution embedding it.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/Utkarsh575/wf-hack-misfits/internal/compliance"
	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/fault"
	"github.com/Utkarsh575/wf-hack-misfits/internal/ledger"
	"github.com/Utkarsh575/wf-hack-misfits/internal/metrics"
	"github.com/Utkarsh575/wf-hack-misfits/internal/signer"
	"github.com/Utkarsh575/wf-hack-misfits/internal/tracing"
)

// State names one step of the authorization flow.
type State string

const (
	StateRequested         State = "REQUESTED"
	StateComplianceChecked State = "COMPLIANCE_CHECKED"
	StateSigned            State = "SIGNED"
	StateSubmitted         State = "SUBMITTED"
	StateConfirmed         State = "CONFIRMED"
	StateRejected          State = "REJECTED"
)

// Coordinator runs the flow. Compliance evaluation completes strictly
// before signing; signing completes strictly before the grant is returned.
// Phases 1-2 are never rolled back when phase 3-4 fails: an issued grant
// has no revocation mechanism, it simply goes unconsumed.
type Coordinator struct {
	gate         *compliance.Gate
	signer       *signer.Signer
	ledger       ledger.Client
	contract     string
	phaseTimeout time.Duration
	logger       *slog.Logger
}

// Config wires the coordinator's collaborators. Ledger may be nil when
// the deployment only issues grants and never submits executions itself.
type Config struct {
	Gate         *compliance.Gate
	Signer       *signer.Signer
	Ledger       ledger.Client
	ContractAddr string
	PhaseTimeout time.Duration
}

func New(cfg Config, logger *slog.Logger) *Coordinator {
	timeout := cfg.PhaseTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Coordinator{
		gate:         cfg.Gate,
		signer:       cfg.Signer,
		ledger:       cfg.Ledger,
		contract:     cfg.ContractAddr,
		phaseTimeout: timeout,
		logger:       logger.With("component", "coordinator"),
	}
}

// AuthorizeResult reports phase 1's terminal outcome.
type AuthorizeResult struct {
	FlowID  uuid.UUID
	State   State
	Grant   *model.AuthorizationGrant
	Verdict *model.Verdict
}

// Authorize runs phase 1: validate, gate, sign. Any error before SIGNED
// aborts with no side effects; a partial grant is never returned.
func (c *Coordinator) Authorize(ctx context.Context, req model.AuthorizationRequest) (*AuthorizeResult, error) {
	flowID := uuid.New()
	ctx, span := tracing.Tracer("coordinator").Start(ctx, "coordinator.authorize",
		otelTrace.WithAttributes(
			attribute.String("flow_id", flowID.String()),
			attribute.String("sender", req.Sender),
		),
	)
	defer span.End()

	result := &AuthorizeResult{FlowID: flowID, State: StateRequested}

	// Validation happens before any collaborator call.
	if req.Sender == "" || req.Amount == "" || req.Nonce == "" {
		metrics.AuthorizeRequestsTotal.WithLabelValues("validation_error").Inc()
		return result, fault.Validation("sender, amount, and nonce are required")
	}
	if req.Contract == "" {
		req.Contract = c.contract
	}
	if req.Contract == "" {
		metrics.AuthorizeRequestsTotal.WithLabelValues("signing_error").Inc()
		return result, fault.Signingf("oracle contract address not configured", nil)
	}

	gateCtx, cancel := context.WithTimeout(ctx, c.phaseTimeout)
	verdict := c.gate.Evaluate(gateCtx, req.Sender)
	cancel()
	result.Verdict = verdict
	result.State = StateComplianceChecked

	if verdict.RiskScore != nil {
		span.SetAttributes(attribute.Int("risk_score", *verdict.RiskScore))
	}

	if !verdict.Allowed {
		result.State = StateRejected
		metrics.AuthorizeRequestsTotal.WithLabelValues("denied").Inc()
		span.SetAttributes(attribute.String("state", string(StateRejected)))
		c.logger.Info("authorization denied",
			"flow_id", flowID,
			"sender", req.Sender,
			"failed_checks", len(verdict.FailedChecks),
		)
		return result, fault.Denial(verdict)
	}

	signCtx, cancel := context.WithTimeout(ctx, c.phaseTimeout)
	grant, err := c.signer.Sign(signCtx, req)
	cancel()
	if err != nil {
		result.State = StateRejected
		metrics.AuthorizeRequestsTotal.WithLabelValues("signing_error").Inc()
		span.RecordError(err)
		return result, err
	}

	result.State = StateSigned
	span.SetAttributes(attribute.String("state", string(StateSigned)))
	result.Grant = grant
	metrics.AuthorizeRequestsTotal.WithLabelValues("granted").Inc()
	c.logger.Info("authorization granted",
		"flow_id", flowID,
		"sender", req.Sender,
		"nonce", req.Nonce,
	)
	return result, nil
}

// ExecuteResult reports phase 2's terminal outcome.
type ExecuteResult struct {
	FlowID  uuid.UUID
	State   State
	Receipt *model.ExecutionReceipt
}

// Execute runs phase 2: submit a contract-execution message to the
// ledger. The ledger's response is authoritative; a contract-side
// rejection is reported with the contract's own reason.
func (c *Coordinator) Execute(ctx context.Context, req ledger.ExecuteRequest) (*ExecuteResult, error) {
	flowID := uuid.New()
	ctx, span := tracing.Tracer("coordinator").Start(ctx, "coordinator.execute",
		otelTrace.WithAttributes(
			attribute.String("flow_id", flowID.String()),
			attribute.String("contract", req.Contract),
		),
	)
	defer span.End()

	result := &ExecuteResult{FlowID: flowID, State: StateSubmitted}

	if req.Mnemonic == "" || req.Contract == "" || len(req.Msg) == 0 || req.Amount == "" || req.Denom == "" {
		result.State = StateRejected
		return result, fault.Validation("mnemonic, contract, msg, amount, denom required")
	}
	if c.ledger == nil {
		result.State = StateRejected
		return result, fault.Infraf("ledger execution is not configured", nil)
	}

	execCtx, cancel := context.WithTimeout(ctx, c.phaseTimeout)
	defer cancel()

	receipt, err := c.ledger.ExecuteContract(execCtx, req)
	if err != nil {
		result.State = StateRejected
		span.RecordError(err)
		var rejected *ledger.TxRejectedError
		if errors.As(err, &rejected) {
			metrics.ExecutionsTotal.WithLabelValues("rejected").Inc()
			c.logger.Info("execution rejected by chain",
				"flow_id", flowID,
				"code", rejected.Code,
				"raw_log", rejected.RawLog,
			)
			return result, fault.Executionf("contract rejected execution", err)
		}
		metrics.ExecutionsTotal.WithLabelValues("infra_error").Inc()
		return result, fault.Infraf("submit execution", err)
	}

	result.State = StateConfirmed
	result.Receipt = receipt
	span.SetAttributes(attribute.String("tx_hash", receipt.TxHash))
	metrics.ExecutionsTotal.WithLabelValues("confirmed").Inc()
	c.logger.Info("execution confirmed", "flow_id", flowID, "tx_hash", receipt.TxHash)
	return result, nil
}

// BuildReceiveMsg assembles the receive_with_approval execution message
// that embeds a grant. The contract reconstructs the canonical message
// from these fields and verifies the signature against the oracle pubkey.
func BuildReceiveMsg(sender, amount, signature, nonce string) (json.RawMessage, error) {
	msg := map[string]any{
		"receive_with_approval": map[string]string{
			"sender":    sender,
			"amount":    amount,
			"signature": signature,
			"nonce":     nonce,
		},
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal receive msg: %w", err)
	}
	return raw, nil
}
