package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
)

// Balances returns the bank balances for an address.
func (c *HTTPClient) Balances(ctx context.Context, address string) ([]model.Coin, error) {
	u := fmt.Sprintf("%s/cosmos/bank/v1beta1/balances/%s", c.restURL, url.PathEscape(address))
	body, err := c.get(ctx, "balances", u)
	if err != nil {
		return nil, fmt.Errorf("balances(%s): %w", address, err)
	}

	var resp balancesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal balances: %w", err)
	}

	coins := make([]model.Coin, len(resp.Balances))
	for i, b := range resp.Balances {
		coins[i] = model.Coin{Denom: b.Denom, Amount: b.Amount}
	}
	return coins, nil
}

// Transactions returns the bank-send history touching an address: both
// sent and received legs, deduplicated by hash, with MsgSend fields
// extracted from each transaction's detail record.
func (c *HTTPClient) Transactions(ctx context.Context, address string) ([]model.LedgerTx, error) {
	sent, err := c.searchTxHashes(ctx, fmt.Sprintf("message.sender='%s'", address))
	if err != nil {
		return nil, fmt.Errorf("search sent txs: %w", err)
	}
	received, err := c.searchTxHashes(ctx, fmt.Sprintf("transfer.recipient='%s'", address))
	if err != nil {
		return nil, fmt.Errorf("search received txs: %w", err)
	}

	seen := make(map[string]struct{}, len(sent)+len(received))
	hashes := make([]string, 0, len(sent)+len(received))
	for _, h := range append(sent, received...) {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		hashes = append(hashes, h)
	}

	var txs []model.LedgerTx
	for _, hash := range hashes {
		extracted, err := c.txDetail(ctx, hash)
		if err != nil {
			// Partial history beats no history; the original logged and
			// skipped detail failures per hash.
			c.logger.Warn("failed to fetch tx detail", "hash", hash, "error", err)
			continue
		}
		txs = append(txs, extracted...)
	}
	return txs, nil
}

// searchTxHashes runs a tx_search RPC query and returns matching hashes.
func (c *HTTPClient) searchTxHashes(ctx context.Context, query string) ([]string, error) {
	u := fmt.Sprintf("%s/tx_search?query=%s&page=1&per_page=%d",
		c.rpcURL, url.QueryEscape(fmt.Sprintf("%q", query)), txSearchPageSize)
	body, err := c.get(ctx, "tx_search", u)
	if err != nil {
		return nil, err
	}

	var resp txSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal tx_search: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	hashes := make([]string, len(resp.Result.Txs))
	for i, tx := range resp.Result.Txs {
		hashes[i] = tx.Hash
	}
	return hashes, nil
}

// txDetail fetches one transaction's detail record and extracts its bank
// sends. Results are cached briefly; history endpoints hammer the same
// hashes when tracing multi-hop flows.
func (c *HTTPClient) txDetail(ctx context.Context, hash string) ([]model.LedgerTx, error) {
	if cached, ok := c.detailCache.Get(hash); ok {
		return cached, nil
	}

	u := fmt.Sprintf("%s/cosmos/tx/v1beta1/txs/%s", c.restURL, url.PathEscape(hash))
	body, err := c.get(ctx, "tx_detail", u)
	if err != nil {
		return nil, err
	}

	var resp txDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal tx detail: %w", err)
	}

	txs := extractBankSends(&resp)
	c.detailCache.Put(hash, txs)
	return txs, nil
}

// extractBankSends pulls MsgSend transfers out of a transaction detail
// record. Non-bank messages are ignored.
func extractBankSends(resp *txDetailResponse) []model.LedgerTx {
	var txs []model.LedgerTx
	for _, raw := range resp.Tx.Body.Messages {
		var msg bankSendMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type != msgSendType || len(msg.Amount) == 0 {
			continue
		}
		txs = append(txs, model.LedgerTx{
			Hash:      resp.TxResponse.TxHash,
			Timestamp: resp.TxResponse.Timestamp,
			Sender:    msg.FromAddress,
			Receiver:  msg.ToAddress,
			Amount:    msg.Amount[0].Amount,
			Denom:     msg.Amount[0].Denom,
		})
	}
	return txs
}

// ExecuteContract submits a contract execution through the tx gateway.
func (c *HTTPClient) ExecuteContract(ctx context.Context, req ExecuteRequest) (*model.ExecutionReceipt, error) {
	receipt, err := c.postGateway(ctx, "execute", "/execute", req)
	if err != nil {
		return nil, fmt.Errorf("execute contract: %w", err)
	}
	return receipt, nil
}

// BankSend submits a direct wallet-to-wallet transfer through the tx
// gateway.
func (c *HTTPClient) BankSend(ctx context.Context, req SendRequest) (*model.ExecutionReceipt, error) {
	receipt, err := c.postGateway(ctx, "bank_send", "/bank/send", req)
	if err != nil {
		return nil, fmt.Errorf("bank send: %w", err)
	}
	return receipt, nil
}
