package signer

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/fault"
	"github.com/Utkarsh575/wf-hack-misfits/internal/metrics"
	"github.com/Utkarsh575/wf-hack-misfits/internal/store"
)

// SignatureLen is the fixed compact signature size: R||S with the
// recovery byte stripped. Verifiers reconstruct the message and public
// key independently and do not need key recovery.
const SignatureLen = 64

// CanonicalMessage builds the exact string both signer and verifier hash.
// Field order and the pipe delimiter are part of the wire contract; any
// deviation breaks verification by the contract.
func CanonicalMessage(sender, amount, contract, nonce string) string {
	return strings.Join([]string{sender, amount, contract, nonce}, "|")
}

// Signer produces authorization grants with the oracle wallet's key.
type Signer struct {
	mnemonic string
	nonces   store.NonceRepository
}

// New creates a signer for the given oracle mnemonic. The mnemonic is
// validated lazily at sign time so a misconfigured key surfaces as a
// signing error on the request path, not a boot failure.
func New(mnemonic string, nonces store.NonceRepository) *Signer {
	return &Signer{mnemonic: mnemonic, nonces: nonces}
}

// Sign builds the canonical message for req, hashes it with SHA-256, and
// signs the digest. Callable only after the sender passed the compliance
// gate; the coordinator enforces that ordering.
//
// The (sender, nonce) pair is consumed after a successful signature; a
// consumed pair is rejected so each authorization is granted at most once
// even if the contract also checks nonces.
func (s *Signer) Sign(ctx context.Context, req model.AuthorizationRequest) (*model.AuthorizationGrant, error) {
	start := time.Now()

	if s.mnemonic == "" {
		return nil, fault.Signingf("oracle mnemonic not configured", nil)
	}

	priv, err := DeriveKey(s.mnemonic)
	if err != nil {
		return nil, fault.Signingf("derive oracle signing key", err)
	}

	message := CanonicalMessage(req.Sender, req.Amount, req.Contract, req.Nonce)
	digest := sha256.Sum256([]byte(message))

	sig, err := ethcrypto.Sign(digest[:], priv.ToECDSA())
	if err != nil {
		return nil, fault.Signingf("sign message digest", err)
	}
	sig = sig[:SignatureLen]

	pubkey := ethcrypto.FromECDSAPub(&priv.ToECDSA().PublicKey)

	if s.nonces != nil {
		consumed, err := s.nonces.Consume(ctx, req.Sender, req.Nonce)
		if err != nil {
			return nil, fault.Infraf("record consumed nonce", err)
		}
		if !consumed {
			metrics.NonceRejectionsTotal.Inc()
			return nil, &fault.Error{
				Kind: fault.KindValidation,
				Msg:  "nonce already consumed for sender",
				Err:  fault.ErrNonceConsumed,
			}
		}
	}

	metrics.SignLatency.Observe(time.Since(start).Seconds())
	metrics.GrantsIssuedTotal.Inc()

	return &model.AuthorizationGrant{
		Message:      message,
		MessageHash:  hex.EncodeToString(digest[:]),
		Signature:    base64.StdEncoding.EncodeToString(sig),
		SignatureHex: hex.EncodeToString(sig),
		Pubkey:       base64.StdEncoding.EncodeToString(pubkey),
		PubkeyHex:    hex.EncodeToString(pubkey),
		Nonce:        req.Nonce,
	}, nil
}
