package transfer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Utkarsh575/wf-hack-misfits/internal/compliance"
	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/fault"
	"github.com/Utkarsh575/wf-hack-misfits/internal/ledger"
	"github.com/Utkarsh575/wf-hack-misfits/internal/registry"
	"github.com/Utkarsh575/wf-hack-misfits/internal/risk"
	"github.com/Utkarsh575/wf-hack-misfits/internal/signer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockScorer struct {
	scoreFunc func(ctx context.Context, address string) (*risk.Result, error)
}

func (m *mockScorer) Score(ctx context.Context, address string) (*risk.Result, error) {
	return m.scoreFunc(ctx, address)
}

// mockLedger implements ledger.Client; only BankSend is exercised here.
type mockLedger struct {
	bankSendFunc func(ctx context.Context, req ledger.SendRequest) (*model.ExecutionReceipt, error)
}

func (m *mockLedger) Balances(context.Context, string) ([]model.Coin, error) {
	panic("not used")
}

func (m *mockLedger) Transactions(context.Context, string) ([]model.LedgerTx, error) {
	panic("not used")
}

func (m *mockLedger) ExecuteContract(context.Context, ledger.ExecuteRequest) (*model.ExecutionReceipt, error) {
	panic("not used")
}

func (m *mockLedger) BankSend(ctx context.Context, req ledger.SendRequest) (*model.ExecutionReceipt, error) {
	return m.bankSendFunc(ctx, req)
}

func newTestService(t *testing.T, score int, reg *registry.Registry, lc ledger.Client) *Service {
	t.Helper()
	kr, err := signer.LoadKeyring("")
	require.NoError(t, err)
	if reg == nil {
		reg = registry.New(testLogger())
	}
	scorer := &mockScorer{
		scoreFunc: func(_ context.Context, address string) (*risk.Result, error) {
			return &risk.Result{Address: address, RiskScore: score}, nil
		},
	}
	gate := compliance.NewGate(reg, scorer, 70, testLogger())
	return NewService(kr, gate, lc, "umlg", testLogger())
}

func TestSendSettlesTransfer(t *testing.T) {
	var sent ledger.SendRequest
	lc := &mockLedger{
		bankSendFunc: func(_ context.Context, req ledger.SendRequest) (*model.ExecutionReceipt, error) {
			sent = req
			return &model.ExecutionReceipt{TxHash: "CAFEBABE"}, nil
		},
	}
	svc := newTestService(t, 10, nil, lc)

	result, err := svc.Send(context.Background(), Request{From: "Alice", To: "Bob", Amount: "250"})
	require.NoError(t, err)

	assert.Equal(t, "CAFEBABE", result.TxHash)
	assert.Equal(t, "Alice", result.From.Label)
	assert.Equal(t, "Bob", result.To.Label)
	assert.Equal(t, "umlg", result.Denom)

	// The result carries copies of the resolved wallets, not labels alone.
	kr, err := signer.LoadKeyring("")
	require.NoError(t, err)
	alice, _ := kr.ByLabel("Alice")
	bob, _ := kr.ByLabel("Bob")
	assert.Equal(t, *alice, result.From)
	assert.Equal(t, *bob, result.To)

	// The send carries the sender's mnemonic and the recipient's address.
	assert.NotEmpty(t, sent.Mnemonic)
	assert.Equal(t, result.To.Address, sent.Recipient)
	assert.Equal(t, "250", sent.Amount)
}

func TestSendValidation(t *testing.T) {
	svc := newTestService(t, 10, nil, &mockLedger{})

	for _, req := range []Request{
		{To: "Bob", Amount: "1"},
		{From: "Alice", Amount: "1"},
		{From: "Alice", To: "Bob"},
	} {
		_, err := svc.Send(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	}
}

func TestSendUnknownWallet(t *testing.T) {
	svc := newTestService(t, 10, nil, &mockLedger{})

	_, err := svc.Send(context.Background(), Request{From: "Mallory", To: "Bob", Amount: "1"})
	assert.ErrorIs(t, err, fault.ErrUnknownWallet)

	_, err = svc.Send(context.Background(), Request{From: "Alice", To: "Mallory", Amount: "1"})
	assert.ErrorIs(t, err, fault.ErrUnknownWallet)
}

func TestSendRejectsSelfTransfer(t *testing.T) {
	svc := newTestService(t, 10, nil, &mockLedger{})

	_, err := svc.Send(context.Background(), Request{From: "Alice", To: "Alice", Amount: "1"})
	assert.ErrorIs(t, err, fault.ErrSelfTransfer)
}

func TestSendDeniedByGate(t *testing.T) {
	called := false
	lc := &mockLedger{
		bankSendFunc: func(context.Context, ledger.SendRequest) (*model.ExecutionReceipt, error) {
			called = true
			return &model.ExecutionReceipt{}, nil
		},
	}
	svc := newTestService(t, 99, nil, lc)

	_, err := svc.Send(context.Background(), Request{From: "Alice", To: "Bob", Amount: "1"})
	require.Error(t, err)
	assert.Equal(t, fault.KindCompliance, fault.KindOf(err))
	assert.False(t, called, "denied transfer must never reach the ledger")
}

func TestSendDeniedForFlaggedSender(t *testing.T) {
	reg := registry.New(testLogger())
	kr, err := signer.LoadKeyring("")
	require.NoError(t, err)
	alice, _ := kr.ByLabel("Alice")
	reg.Seed(model.ClassificationMixer, alice.Address)

	svc := newTestService(t, 0, reg, &mockLedger{})

	_, err = svc.Send(context.Background(), Request{From: "Alice", To: "Bob", Amount: "1"})
	require.Error(t, err)

	var denial *fault.DenialError
	require.ErrorAs(t, err, &denial)
	require.Len(t, denial.Verdict.FailedChecks, 1)
	assert.Equal(t, "mixer", denial.Verdict.FailedChecks[0].Finding.Type)
}

func TestSendLedgerRejectionPassedThrough(t *testing.T) {
	lc := &mockLedger{
		bankSendFunc: func(context.Context, ledger.SendRequest) (*model.ExecutionReceipt, error) {
			return nil, &ledger.TxRejectedError{Code: 5, RawLog: "insufficient funds"}
		},
	}
	svc := newTestService(t, 10, nil, lc)

	_, err := svc.Send(context.Background(), Request{From: "Alice", To: "Bob", Amount: "1"})
	require.Error(t, err)

	var rejected *ledger.TxRejectedError
	assert.ErrorAs(t, err, &rejected)
}
