package model

// AuthorizationRequest carries the tuple a caller wants authorized for a
// receive-with-approval contract execution. It is constructed per request
// and never persisted.
type AuthorizationRequest struct {
	Sender   string `json:"sender"`
	Amount   string `json:"amount"`
	Nonce    string `json:"nonce"`
	Contract string `json:"contract"`
}

// AuthorizationGrant is a bearer credential proving that a specific
// (sender, amount, contract, nonce) tuple passed the compliance gate.
// The base64 encodings are authoritative; the hex forms exist for
// debugging and test assertions.
type AuthorizationGrant struct {
	Message      string `json:"message"`
	MessageHash  string `json:"messageHash"`
	Signature    string `json:"signature"`
	SignatureHex string `json:"signature_hex"`
	Pubkey       string `json:"pubkey"`
	PubkeyHex    string `json:"pubkey_hex"`
	Nonce        string `json:"nonce"`
}
