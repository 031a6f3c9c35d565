package signer

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/fault"
	"github.com/Utkarsh575/wf-hack-misfits/internal/store"
)

// mockNonceRepo is a func-field mock of store.NonceRepository.
type mockNonceRepo struct {
	consumeFunc func(ctx context.Context, sender, nonce string) (bool, error)
}

func (m *mockNonceRepo) Consume(ctx context.Context, sender, nonce string) (bool, error) {
	return m.consumeFunc(ctx, sender, nonce)
}

func testRequest() model.AuthorizationRequest {
	return model.AuthorizationRequest{
		Sender:   "wasm18thxpksjlupr6szqctcjvj0mmhkr0suj5t3xnj",
		Amount:   "1000",
		Nonce:    "nonce-42",
		Contract: "wasm1contract",
	}
}

func TestCanonicalMessage(t *testing.T) {
	msg := CanonicalMessage("wasm1sender", "500", "wasm1contract", "n1")
	assert.Equal(t, "wasm1sender|500|wasm1contract|n1", msg)
}

func TestSignProducesVerifiableGrant(t *testing.T) {
	oracle := defaultWallets()[4]
	s := New(oracle.Mnemonic, store.NewMemoryNonceStore())
	req := testRequest()

	grant, err := s.Sign(context.Background(), req)
	require.NoError(t, err)

	expectedMsg := CanonicalMessage(req.Sender, req.Amount, req.Contract, req.Nonce)
	assert.Equal(t, expectedMsg, grant.Message)
	assert.Equal(t, req.Nonce, grant.Nonce)

	digest := sha256.Sum256([]byte(expectedMsg))
	assert.Equal(t, hex.EncodeToString(digest[:]), grant.MessageHash)

	sig, err := hex.DecodeString(grant.SignatureHex)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLen)

	pubkey, err := hex.DecodeString(grant.PubkeyHex)
	require.NoError(t, err)
	require.Len(t, pubkey, 65)

	assert.True(t, ethcrypto.VerifySignature(pubkey, digest[:], sig))

	// The base64 forms encode the same bytes as the hex forms.
	sigB64, err := base64.StdEncoding.DecodeString(grant.Signature)
	require.NoError(t, err)
	assert.Equal(t, sig, sigB64)
	pubB64, err := base64.StdEncoding.DecodeString(grant.Pubkey)
	require.NoError(t, err)
	assert.Equal(t, pubkey, pubB64)
}

func TestSignRejectsTamperedFields(t *testing.T) {
	oracle := defaultWallets()[4]
	s := New(oracle.Mnemonic, nil)
	req := testRequest()

	grant, err := s.Sign(context.Background(), req)
	require.NoError(t, err)

	sig, err := hex.DecodeString(grant.SignatureHex)
	require.NoError(t, err)
	pubkey, err := hex.DecodeString(grant.PubkeyHex)
	require.NoError(t, err)

	tampered := []model.AuthorizationRequest{
		{Sender: "wasm1other", Amount: req.Amount, Nonce: req.Nonce, Contract: req.Contract},
		{Sender: req.Sender, Amount: "1001", Nonce: req.Nonce, Contract: req.Contract},
		{Sender: req.Sender, Amount: req.Amount, Nonce: "nonce-43", Contract: req.Contract},
		{Sender: req.Sender, Amount: req.Amount, Nonce: req.Nonce, Contract: "wasm1evil"},
	}
	for _, tr := range tampered {
		digest := sha256.Sum256([]byte(CanonicalMessage(tr.Sender, tr.Amount, tr.Contract, tr.Nonce)))
		assert.False(t, ethcrypto.VerifySignature(pubkey, digest[:], sig))
	}
}

func TestSignConsumesNonce(t *testing.T) {
	oracle := defaultWallets()[4]
	s := New(oracle.Mnemonic, store.NewMemoryNonceStore())
	req := testRequest()

	_, err := s.Sign(context.Background(), req)
	require.NoError(t, err)

	_, err = s.Sign(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrNonceConsumed)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestSignDistinctNoncesIndependent(t *testing.T) {
	oracle := defaultWallets()[4]
	s := New(oracle.Mnemonic, store.NewMemoryNonceStore())

	req := testRequest()
	_, err := s.Sign(context.Background(), req)
	require.NoError(t, err)

	req.Nonce = "nonce-43"
	_, err = s.Sign(context.Background(), req)
	assert.NoError(t, err)
}

func TestSignWithoutMnemonic(t *testing.T) {
	s := New("", store.NewMemoryNonceStore())

	_, err := s.Sign(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, fault.KindSigning, fault.KindOf(err))
}

func TestSignInvalidMnemonic(t *testing.T) {
	s := New("definitely not twenty four valid words", nil)

	_, err := s.Sign(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, fault.KindSigning, fault.KindOf(err))
}

func TestSignNonceStoreFailure(t *testing.T) {
	oracle := defaultWallets()[4]
	s := New(oracle.Mnemonic, &mockNonceRepo{
		consumeFunc: func(context.Context, string, string) (bool, error) {
			return false, errors.New("redis down")
		},
	})

	_, err := s.Sign(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, fault.KindInfra, fault.KindOf(err))
}

func TestSignDeterministicSignature(t *testing.T) {
	oracle := defaultWallets()[4]
	s := New(oracle.Mnemonic, nil)
	req := testRequest()

	g1, err := s.Sign(context.Background(), req)
	require.NoError(t, err)
	g2, err := s.Sign(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, g1.SignatureHex, g2.SignatureHex)
	assert.Equal(t, g1.PubkeyHex, g2.PubkeyHex)
}
