package model

import (
	"encoding/json"
	"fmt"
)

// Verdict is the outcome of a single compliance evaluation. Verdicts are
// computed fresh on every call and never cached.
type Verdict struct {
	Address      string        `json:"address"`
	Allowed      bool          `json:"allowed"`
	RiskScore    *int          `json:"riskScore,omitempty"`
	FailedChecks []FailedCheck `json:"failedChecks,omitempty"`
}

// Finding is a structured compliance finding produced by the risk oracle's
// analysis tools (sanctions screening, layering traces, structuring checks).
type Finding struct {
	Type         string     `json:"type"`
	Wallet       string     `json:"wallet,omitempty"`
	Hop          int        `json:"hop,omitempty"`
	Message      string     `json:"message"`
	Transactions []LedgerTx `json:"transactions,omitempty"`
}

// FailedCheck is a tagged variant: either a plain message or a structured
// finding. The wire form is a bare JSON string for plain checks and an
// object for findings, matching what dashboard consumers pattern-match on.
type FailedCheck struct {
	Plain   string
	Finding *Finding
}

// PlainCheck wraps a bare message as a FailedCheck.
func PlainCheck(msg string) FailedCheck {
	return FailedCheck{Plain: msg}
}

// FindingCheck wraps a structured finding as a FailedCheck.
func FindingCheck(f Finding) FailedCheck {
	return FailedCheck{Finding: &f}
}

// IsPlain reports whether the check is a bare message.
func (fc FailedCheck) IsPlain() bool {
	return fc.Finding == nil
}

func (fc FailedCheck) MarshalJSON() ([]byte, error) {
	if fc.Finding != nil {
		return json.Marshal(fc.Finding)
	}
	return json.Marshal(fc.Plain)
}

func (fc *FailedCheck) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		fc.Plain = s
		fc.Finding = nil
		return nil
	}
	var f Finding
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed check is neither string nor finding: %w", err)
	}
	fc.Plain = ""
	fc.Finding = &f
	return nil
}
