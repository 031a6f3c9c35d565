// Package ledger is the client for the chain's query and execution
// surface: Tendermint RPC for transaction search, the REST API for
// balances and transaction detail, and a local tx gateway for signing and
// broadcasting. The chain itself is an opaque external system.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Utkarsh575/wf-hack-misfits/internal/cache"
	"github.com/Utkarsh575/wf-hack-misfits/internal/circuitbreaker"
	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/ratelimit"
)

// Client is the ledger query/execution interface used by the coordinator
// and the transfer and balance paths.
type Client interface {
	Balances(ctx context.Context, address string) ([]model.Coin, error)
	Transactions(ctx context.Context, address string) ([]model.LedgerTx, error)
	ExecuteContract(ctx context.Context, req ExecuteRequest) (*model.ExecutionReceipt, error)
	BankSend(ctx context.Context, req SendRequest) (*model.ExecutionReceipt, error)
}

// ExecuteRequest submits a contract execution with attached funds through
// the tx gateway. The gateway signs with the supplied mnemonic; this is a
// localnet development surface, mirrored from the original deployment.
type ExecuteRequest struct {
	Mnemonic string          `json:"mnemonic"`
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Amount   string          `json:"amount"`
	Denom    string          `json:"denom"`
}

// SendRequest submits a direct bank send through the tx gateway.
type SendRequest struct {
	Mnemonic  string `json:"mnemonic"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Denom     string `json:"denom"`
}

const (
	txSearchPageSize = 20
	detailCacheSize  = 512
	detailCacheTTL   = 30 * time.Second
)

// HTTPClient implements Client over the chain's HTTP surfaces.
type HTTPClient struct {
	httpClient  *http.Client
	rpcURL      string
	restURL     string
	gatewayURL  string
	logger      *slog.Logger
	limiter     *ratelimit.Limiter
	breaker     *circuitbreaker.Breaker
	detailCache *cache.LRU[string, []model.LedgerTx]
}

func NewHTTPClient(rpcURL, restURL, gatewayURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		httpClient:  &http.Client{Timeout: timeout},
		rpcURL:      rpcURL,
		restURL:     restURL,
		gatewayURL:  gatewayURL,
		logger:      logger.With("component", "ledger_client"),
		detailCache: cache.NewLRU[string, []model.LedgerTx](detailCacheSize, detailCacheTTL),
	}
}

// SetRateLimiter sets the outbound rate limiter for this client.
func (c *HTTPClient) SetRateLimiter(l *ratelimit.Limiter) {
	c.limiter = l
}

// SetBreaker sets the circuit breaker for gateway submissions.
func (c *HTTPClient) SetBreaker(b *circuitbreaker.Breaker) {
	c.breaker = b
}

// get performs a GET against one of the chain surfaces and returns the
// raw body on a 200.
func (c *HTTPClient) get(ctx context.Context, method, url string) (_ []byte, err error) {
	defer func() { ratelimit.RecordCall("ledger", method, err) }()

	if c.limiter != nil {
		if err = c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// postGateway submits a signed broadcast through the tx gateway and maps
// non-zero execution codes to TxRejectedError.
func (c *HTTPClient) postGateway(ctx context.Context, method, path string, payload any) (_ *model.ExecutionReceipt, err error) {
	defer func() { ratelimit.RecordCall("gateway", method, err) }()

	if c.breaker != nil {
		if err = c.breaker.Allow(); err != nil {
			return nil, fmt.Errorf("tx gateway: %w", err)
		}
		defer func() {
			// Contract rejections are healthy gateway behavior; only
			// transport-level failures trip the breaker.
			var rejected *TxRejectedError
			if err != nil && !errors.As(err, &rejected) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(respBody))
	}

	var receipt gatewayReceipt
	if err = json.Unmarshal(respBody, &receipt); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}
	if receipt.Error != "" {
		return nil, &TxRejectedError{Code: receipt.Code, RawLog: receipt.Error}
	}
	if receipt.Code != 0 {
		return nil, &TxRejectedError{Code: receipt.Code, RawLog: receipt.RawLog}
	}

	return &model.ExecutionReceipt{
		TxHash:    receipt.TxHash,
		Height:    receipt.Height,
		GasWanted: receipt.GasWanted,
		GasUsed:   receipt.GasUsed,
		RawLog:    receipt.RawLog,
	}, nil
}
