package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingAlerter counts deliveries.
type countingAlerter struct {
	mu    sync.Mutex
	count int
	err   error
}

func (c *countingAlerter) Send(context.Context, Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.err
}

func (c *countingAlerter) sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func TestMultiAlerterCooldownSuppressesRepeats(t *testing.T) {
	inner := &countingAlerter{}
	m := NewMultiAlerter(time.Minute, testLogger(), inner)
	ctx := context.Background()

	a := Alert{Type: TypeOracleOutage, Subject: "wasm1abc", Title: "oracle down"}
	require.NoError(t, m.Send(ctx, a))
	require.NoError(t, m.Send(ctx, a))
	require.NoError(t, m.Send(ctx, a))

	assert.Equal(t, 1, inner.sent())
}

func TestMultiAlerterCooldownKeyedByTypeAndSubject(t *testing.T) {
	inner := &countingAlerter{}
	m := NewMultiAlerter(time.Minute, testLogger(), inner)
	ctx := context.Background()

	require.NoError(t, m.Send(ctx, Alert{Type: TypeOracleOutage, Subject: "wasm1a"}))
	require.NoError(t, m.Send(ctx, Alert{Type: TypeOracleOutage, Subject: "wasm1b"}))
	require.NoError(t, m.Send(ctx, Alert{Type: TypeFlaggedAttempt, Subject: "wasm1a"}))

	assert.Equal(t, 3, inner.sent())
}

func TestMultiAlerterFansOutAndReportsFirstError(t *testing.T) {
	failing := &countingAlerter{err: errors.New("channel down")}
	healthy := &countingAlerter{}
	m := NewMultiAlerter(time.Minute, testLogger(), failing, healthy)

	err := m.Send(context.Background(), Alert{Type: TypeRecovery, Subject: "svc"})
	assert.ErrorContains(t, err, "channel down")
	assert.Equal(t, 1, failing.sent())
	assert.Equal(t, 1, healthy.sent())
}

func TestSlackAlerterPayload(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewSlackAlerter(server.URL)
	err := s.Send(context.Background(), Alert{
		Type:    TypeFlaggedAttempt,
		Subject: "wasm1bad",
		Title:   "Sign attempt by flagged address",
		Message: "address is on 1 classification list(s)",
	})
	require.NoError(t, err)
	assert.Contains(t, payload["text"], "FLAGGED_ATTEMPT")
	assert.Contains(t, payload["text"], "wasm1bad")
}

func TestSlackAlerterNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer server.Close()

	err := NewSlackAlerter(server.URL).Send(context.Background(), Alert{Type: TypeOracleOutage})
	assert.ErrorContains(t, err, "status 403")
}

func TestWebhookAlerterPayload(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	}))
	defer server.Close()

	err := NewWebhookAlerter(server.URL).Send(context.Background(), Alert{
		Type:    TypeOracleOutage,
		Subject: "wasm1abc",
		Message: "compliance checks are failing closed",
		Fields:  map[string]string{"component": "risk_client"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORACLE_OUTAGE", payload["type"])
	assert.Equal(t, "wasm1abc", payload["subject"])
	assert.NotEmpty(t, payload["time"])
}

func TestNoopAlerter(t *testing.T) {
	assert.NoError(t, NewNoopAlerter().Send(context.Background(), Alert{Type: TypeRecovery}))
}
