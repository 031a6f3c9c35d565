// Package risk implements the client for the external wallet-risk-scoring
// oracle. The oracle is a numeric collaborator: it is asked for a score
// and a list of failed checks, and any failure to answer is the caller's
// problem to treat as a denial.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Utkarsh575/wf-hack-misfits/internal/circuitbreaker"
	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/ratelimit"
)

// Scorer asks the risk oracle for a wallet's risk assessment.
type Scorer interface {
	Score(ctx context.Context, address string) (*Result, error)
}

// Result is the oracle's assessment of a single wallet.
type Result struct {
	Address      string
	RiskScore    int
	FailedChecks []model.FailedCheck
}

// scoreResponse mirrors the oracle's wire format. The score may arrive as
// an integer, a float, or a numeric string depending on the analysis path.
type scoreResponse struct {
	Address      string              `json:"wallet_address"`
	RiskScore    json.Number         `json:"risk_score"`
	FailedChecks []model.FailedCheck `json:"failed_checks"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	limiter    *ratelimit.Limiter
	breaker    *circuitbreaker.Breaker
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger.With("component", "risk_client"),
	}
}

// SetRateLimiter sets the outbound rate limiter for this client.
func (c *Client) SetRateLimiter(l *ratelimit.Limiter) {
	c.limiter = l
}

// SetBreaker sets the circuit breaker for this client.
func (c *Client) SetBreaker(b *circuitbreaker.Breaker) {
	c.breaker = b
}

// Score fetches the risk assessment for address. Every error path (transport,
// non-200 status, malformed body) is returned to the caller, who is expected
// to fail closed.
func (c *Client) Score(ctx context.Context, address string) (result *Result, err error) {
	defer func() { ratelimit.RecordCall("risk", "compute-risk", err) }()

	if c.limiter != nil {
		if err = c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	if c.breaker != nil {
		if err = c.breaker.Allow(); err != nil {
			return nil, fmt.Errorf("risk oracle: %w", err)
		}
		defer func() {
			if err != nil {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}()
	}

	u := fmt.Sprintf("%s/compute-risk/?wallet_address=%s", c.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
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

	var sr scoreResponse
	if err = json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	score, err := parseScore(sr.RiskScore)
	if err != nil {
		return nil, fmt.Errorf("risk_score for %s: %w", address, err)
	}

	return &Result{
		Address:      sr.Address,
		RiskScore:    score,
		FailedChecks: sr.FailedChecks,
	}, nil
}

// parseScore coerces the oracle's numeric score to an int. The oracle's
// analysis tools emit floats; truncation matches its own persistence.
func parseScore(n json.Number) (int, error) {
	if n.String() == "" {
		return 0, fmt.Errorf("missing")
	}
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("malformed: %q", n.String())
	}
	return int(f), nil
}
