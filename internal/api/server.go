// Package api exposes the oracle's HTTP surface: grant issuance,
// execution hand-off, deny-list management, and ledger reads.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Utkarsh575/wf-hack-misfits/internal/coordinator"
	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/fault"
	"github.com/Utkarsh575/wf-hack-misfits/internal/ledger"
	"github.com/Utkarsh575/wf-hack-misfits/internal/registry"
	"github.com/Utkarsh575/wf-hack-misfits/internal/risk"
	"github.com/Utkarsh575/wf-hack-misfits/internal/signer"
	"github.com/Utkarsh575/wf-hack-misfits/internal/transfer"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

// Authorizer issues grants and submits executions. In production this is
// satisfied by *coordinator.Coordinator; tests can provide a simple mock.
type Authorizer interface {
	Authorize(ctx context.Context, req model.AuthorizationRequest) (*coordinator.AuthorizeResult, error)
	Execute(ctx context.Context, req ledger.ExecuteRequest) (*coordinator.ExecuteResult, error)
}

// Transferer moves funds between named wallets.
type Transferer interface {
	Send(ctx context.Context, req transfer.Request) (*transfer.Result, error)
}

// LedgerReader serves balance and transaction-history lookups.
type LedgerReader interface {
	Balances(ctx context.Context, address string) ([]model.Coin, error)
	Transactions(ctx context.Context, address string) ([]model.LedgerTx, error)
}

// Server provides the oracle HTTP API.
type Server struct {
	auth     Authorizer
	registry *registry.Registry
	scorer   risk.Scorer
	keyring  *signer.Keyring
	reader   LedgerReader
	transfer Transferer
	contract string
	logger   *slog.Logger
}

// NewServer creates the API server. Optional collaborators are wired
// through ServerOptions; handlers for absent collaborators return 500.
func NewServer(auth Authorizer, reg *registry.Registry, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		auth:     auth,
		registry: reg,
		logger:   logger.With("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServerOption configures optional dependencies for the API server.
type ServerOption func(*Server)

// WithKeyring sets the wallet keyring used by transfer and balance handlers.
func WithKeyring(k *signer.Keyring) ServerOption {
	return func(s *Server) { s.keyring = k }
}

// WithLedgerReader sets the ledger read client.
func WithLedgerReader(r LedgerReader) ServerOption {
	return func(s *Server) { s.reader = r }
}

// WithTransferer sets the wallet-transfer service.
func WithTransferer(t Transferer) ServerOption {
	return func(s *Server) { s.transfer = t }
}

// WithContractAddr sets the default escrow contract address.
func WithContractAddr(addr string) ServerOption {
	return func(s *Server) { s.contract = addr }
}

// WithScorer sets the risk oracle client used by the score-lookup
// handler. Lookups are read-only and bypass the compliance gate.
func WithScorer(sc risk.Scorer) ServerOption {
	return func(s *Server) { s.scorer = sc }
}

// Handler returns the HTTP handler for the oracle API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oracle/sign-receive", s.handleSignReceive)
	mux.HandleFunc("POST /execute", s.handleExecute)

	mux.HandleFunc("GET /sanctions/check/{address}", s.checkHandler(model.ClassificationSanctioned))
	mux.HandleFunc("POST /sanctions/add", s.addHandler(model.ClassificationSanctioned))
	mux.HandleFunc("GET /sanctions/all", s.handleAllFlagged)
	mux.HandleFunc("GET /mixers/check/{address}", s.checkHandler(model.ClassificationMixer))
	mux.HandleFunc("POST /mixers/add", s.addHandler(model.ClassificationMixer))
	mux.HandleFunc("GET /mixers/all", s.listAllHandler(model.ClassificationMixer, "mixers"))
	mux.HandleFunc("GET /darknet/check/{address}", s.checkHandler(model.ClassificationDarknet))
	mux.HandleFunc("POST /darknet/add", s.addHandler(model.ClassificationDarknet))
	mux.HandleFunc("GET /darknet/all", s.listAllHandler(model.ClassificationDarknet, "darknet"))

	mux.HandleFunc("GET /risk/{address}", s.handleRisk)
	mux.HandleFunc("GET /transactions/{address}", s.handleTransactions)
	mux.HandleFunc("GET /wallets", s.handleWallets)
	mux.HandleFunc("GET /wallet-balance", s.handleAddressBalance)
	mux.HandleFunc("GET /wallet-balance/{label}", s.handleWalletBalance)
	mux.HandleFunc("GET /contract-balance", s.handleContractBalance)
	mux.HandleFunc("POST /wallet-transfer", s.handleWalletTransfer)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSONBody reads and decodes a JSON request body into v.
// Returns false (and writes an error response) if decoding fails.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, `{"success":false,"error":"invalid JSON body"}`, http.StatusBadRequest)
		return false
	}
	return true
}

// errorBody is the failure envelope shared by every handler. Denials
// carry the verdict's score and checks so callers see the same shape
// regardless of which phase rejected them.
type errorBody struct {
	Success      bool                `json:"success"`
	Error        string              `json:"error"`
	RiskScore    *int                `json:"riskScore,omitempty"`
	FailedChecks []model.FailedCheck `json:"failedChecks,omitempty"`
}

// writeFault maps a service error onto the HTTP surface. The verdict
// embedded in a denial is rendered verbatim; internal error chains are
// logged but never leaked to the caller.
func (s *Server) writeFault(w http.ResponseWriter, err error) {
	var denial *fault.DenialError
	if errors.As(err, &denial) {
		writeJSON(w, http.StatusForbidden, errorBody{
			Error:        "compliance check failed",
			RiskScore:    denial.Verdict.RiskScore,
			FailedChecks: denial.Verdict.FailedChecks,
		})
		return
	}

	status := fault.HTTPStatus(err)
	msg := "internal server error"
	var fe *fault.Error
	if errors.As(err, &fe) && status < http.StatusInternalServerError {
		msg = fe.Msg
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

type signReceiveRequest struct {
	Sender   string `json:"sender"`
	Amount   string `json:"amount"`
	Nonce    string `json:"nonce"`
	Contract string `json:"contract"`
}

type signReceiveResponse struct {
	Success bool `json:"success"`
	model.AuthorizationGrant
}

func (s *Server) handleSignReceive(w http.ResponseWriter, r *http.Request) {
	var req signReceiveRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := s.auth.Authorize(r.Context(), model.AuthorizationRequest{
		Sender:   req.Sender,
		Amount:   req.Amount,
		Nonce:    req.Nonce,
		Contract: req.Contract,
	})
	if err != nil {
		s.writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusOK, signReceiveResponse{
		Success:            true,
		AuthorizationGrant: *result.Grant,
	})
}

type executeRequest struct {
	Mnemonic string          `json:"mnemonic"`
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Amount   string          `json:"amount"`
	Denom    string          `json:"denom"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Contract == "" {
		req.Contract = s.contract
	}

	result, err := s.auth.Execute(r.Context(), ledger.ExecuteRequest{
		Mnemonic: req.Mnemonic,
		Contract: req.Contract,
		Msg:      req.Msg,
		Amount:   req.Amount,
		Denom:    req.Denom,
	})
	if err != nil {
		s.writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"tx": executeTx{
			State:            result.State,
			ExecutionReceipt: result.Receipt,
		},
	})
}

// executeTx is the execute response body: the ledger receipt with the
// terminal flow state alongside.
type executeTx struct {
	State coordinator.State `json:"state"`
	*model.ExecutionReceipt
}

// handleRisk proxies the risk oracle's score for dashboard reads. It
// never runs the compliance gate: a passive lookup must not fire
// flagged-attempt alerts or consume alert cooldown state.
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if address == "" {
		http.Error(w, `{"success":false,"error":"address is required"}`, http.StatusBadRequest)
		return
	}
	if s.scorer == nil {
		http.Error(w, `{"success":false,"error":"risk lookups are not configured"}`, http.StatusInternalServerError)
		return
	}

	result, err := s.scorer.Score(r.Context(), address)
	if err != nil {
		s.logger.Error("risk score fetch failed", "address", address, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to fetch risk score"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":    address,
		"risk_score": result.RiskScore,
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if address == "" {
		http.Error(w, `{"success":false,"error":"address is required"}`, http.StatusBadRequest)
		return
	}
	if s.reader == nil {
		http.Error(w, `{"success":false,"error":"ledger reads are not configured"}`, http.StatusInternalServerError)
		return
	}

	txs, err := s.reader.Transactions(r.Context(), address)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":      address,
		"count":        len(txs),
		"transactions": txs,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
