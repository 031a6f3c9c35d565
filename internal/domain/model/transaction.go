package model

// LedgerTx is a bank-send transfer extracted from the ledger's transaction
// history. Amounts stay strings end to end; the ledger deals in integers
// wider than float64 can represent.
type LedgerTx struct {
	Hash      string `json:"hash,omitempty"`
	Timestamp string `json:"timestamp"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Amount    string `json:"amount"`
	Denom     string `json:"denom"`
}

// Coin is a ledger denomination/amount pair.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// ExecutionReceipt is the ledger's authoritative record of a submitted
// contract execution. Numeric fields wider than 53 bits are strings.
type ExecutionReceipt struct {
	TxHash    string `json:"transactionHash"`
	Height    string `json:"height"`
	GasWanted string `json:"gasWanted,omitempty"`
	GasUsed   string `json:"gasUsed,omitempty"`
	RawLog    string `json:"rawLog,omitempty"`
}
