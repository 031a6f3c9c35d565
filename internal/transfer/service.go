// Package transfer moves funds between named wallets with a compliance
// gate in front of the send.
package transfer

import (
	"context"
	"log/slog"

	"github.com/Utkarsh575/wf-hack-misfits/internal/compliance"
	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/fault"
	"github.com/Utkarsh575/wf-hack-misfits/internal/ledger"
	"github.com/Utkarsh575/wf-hack-misfits/internal/signer"
)

// Service resolves wallet labels, gates the sender, and submits a bank
// send through the ledger gateway.
type Service struct {
	keyring *signer.Keyring
	gate    *compliance.Gate
	ledger  ledger.Client
	denom   string
	logger  *slog.Logger
}

func NewService(keyring *signer.Keyring, gate *compliance.Gate, lc ledger.Client, denom string, logger *slog.Logger) *Service {
	return &Service{
		keyring: keyring,
		gate:    gate,
		ledger:  lc,
		denom:   denom,
		logger:  logger.With("component", "transfer"),
	}
}

// Request names the endpoints by wallet label, not address.
type Request struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Result reports the settled transfer.
type Result struct {
	TxHash string       `json:"txHash"`
	From   model.Wallet `json:"from"`
	To     model.Wallet `json:"to"`
	Amount string       `json:"amount"`
	Denom  string       `json:"denom"`
}

// Send validates the request, runs the sender through the compliance
// gate, and submits the transfer. Self-transfers are rejected before
// any collaborator call.
func (s *Service) Send(ctx context.Context, req Request) (*Result, error) {
	if req.From == "" || req.To == "" || req.Amount == "" {
		return nil, fault.Validation("from, to, and amount are required")
	}
	from, ok := s.keyring.ByLabel(req.From)
	if !ok {
		return nil, &fault.Error{Kind: fault.KindValidation, Msg: "unknown sender wallet: " + req.From, Err: fault.ErrUnknownWallet}
	}
	to, ok := s.keyring.ByLabel(req.To)
	if !ok {
		return nil, &fault.Error{Kind: fault.KindValidation, Msg: "unknown recipient wallet: " + req.To, Err: fault.ErrUnknownWallet}
	}
	if from.Address == to.Address {
		return nil, &fault.Error{Kind: fault.KindValidation, Msg: "sender and recipient must differ", Err: fault.ErrSelfTransfer}
	}

	verdict := s.gate.Evaluate(ctx, from.Address)
	if !verdict.Allowed {
		s.logger.Info("transfer denied",
			"from", from.Label,
			"to", to.Label,
			"failed_checks", len(verdict.FailedChecks),
		)
		return nil, fault.Denial(verdict)
	}

	if s.ledger == nil {
		return nil, fault.Infraf("ledger transfers are not configured", nil)
	}
	receipt, err := s.ledger.BankSend(ctx, ledger.SendRequest{
		Mnemonic:  from.Mnemonic,
		Recipient: to.Address,
		Amount:    req.Amount,
		Denom:     s.denom,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer settled",
		"from", from.Label,
		"to", to.Label,
		"amount", req.Amount,
		"tx_hash", receipt.TxHash,
	)
	return &Result{
		TxHash: receipt.TxHash,
		From:   *from,
		To:     *to,
		Amount: req.Amount,
		Denom:  s.denom,
	}, nil
}
