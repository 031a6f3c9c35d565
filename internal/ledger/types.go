package ledger

import (
	"encoding/json"
	"fmt"
)

// txSearchResponse is the RPC tx_search envelope.
type txSearchResponse struct {
	JSONRPC string `json:"jsonrpc"`
	Result  struct {
		Txs []struct {
			Hash string `json:"hash"`
		} `json:"txs"`
		TotalCount string `json:"total_count"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s %s", e.Code, e.Message, e.Data)
}

// txDetailResponse is the REST /cosmos/tx/v1beta1/txs/{hash} envelope,
// trimmed to the fields the extractor needs.
type txDetailResponse struct {
	Tx struct {
		Body struct {
			Messages []json.RawMessage `json:"messages"`
		} `json:"body"`
	} `json:"tx"`
	TxResponse struct {
		TxHash    string `json:"txhash"`
		Timestamp string `json:"timestamp"`
	} `json:"tx_response"`
}

// bankSendMessage is a /cosmos.bank.v1beta1.MsgSend body.
type bankSendMessage struct {
	Type        string `json:"@type"`
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      []struct {
		Denom  string `json:"denom"`
		Amount string `json:"amount"`
	} `json:"amount"`
}

const msgSendType = "/cosmos.bank.v1beta1.MsgSend"

// balancesResponse is the REST bank balances envelope.
type balancesResponse struct {
	Balances []struct {
		Denom  string `json:"denom"`
		Amount string `json:"amount"`
	} `json:"balances"`
}

// gatewayReceipt is the tx gateway's broadcast result. Large integers are
// strings on the wire; they stay strings here.
type gatewayReceipt struct {
	TxHash    string `json:"transactionHash"`
	Code      uint32 `json:"code"`
	Height    string `json:"height"`
	GasWanted string `json:"gasWanted"`
	GasUsed   string `json:"gasUsed"`
	RawLog    string `json:"rawLog"`
	Error     string `json:"error,omitempty"`
}

// TxRejectedError reports that the chain accepted the submission but the
// contract (or the node's execution) rejected it. The reason is the
// chain's own and is never reinterpreted.
type TxRejectedError struct {
	Code   uint32
	RawLog string
}

func (e *TxRejectedError) Error() string {
	return fmt.Sprintf("transaction rejected (code %d): %s", e.Code, e.RawLog)
}
