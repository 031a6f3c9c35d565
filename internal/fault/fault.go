// Package fault defines the service-wide failure taxonomy. Every outward
// failure is one of five kinds so downstream consumers can tell a
// compliance denial apart from the service refusing to sign or the chain
// refusing to execute.
package fault

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindCompliance Kind = "compliance_denial"
	KindInfra      Kind = "infrastructure"
	KindSigning    Kind = "signing"
	KindExecution  Kind = "execution_rejection"
)

// Sentinel errors for conditions callers branch on.
var (
	// ErrAlreadyListed is returned when an address is added to a
	// classification set it is already a member of.
	ErrAlreadyListed = errors.New("address already on list")

	// ErrNonceConsumed is returned when a (sender, nonce) pair has already
	// been granted. Each authorization is usable at most once.
	ErrNonceConsumed = errors.New("nonce already consumed for sender")

	// ErrUnknownWallet is returned for a wallet label not in the keyring.
	ErrUnknownWallet = errors.New("unknown wallet label")

	// ErrSelfTransfer is returned when sender and recipient resolve to the
	// same address.
	ErrSelfTransfer = errors.New("sender and recipient cannot be the same")
)

// Error is a classified failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a validation failure. Always recoverable by the caller
// correcting input; no collaborator calls are made before it is raised.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Signingf builds a signing failure (misconfigured key material).
func Signingf(msg string, err error) *Error {
	return &Error{Kind: KindSigning, Msg: msg, Err: err}
}

// Infraf builds an infrastructure failure (collaborator unreachable or
// timed out).
func Infraf(msg string, err error) *Error {
	return &Error{Kind: KindInfra, Msg: msg, Err: err}
}

// Executionf builds an execution rejection: the ledger or contract itself
// refused the transaction. The reason is the chain's, reported verbatim.
func Executionf(msg string, err error) *Error {
	return &Error{Kind: KindExecution, Msg: msg, Err: err}
}

// DenialError is a compliance denial carrying the full verdict so the API
// layer can render risk score and failed checks.
type DenialError struct {
	Verdict *model.Verdict
}

func (e *DenialError) Error() string {
	return "transaction failed compliance check"
}

// Denial wraps a non-allowed verdict as an error.
func Denial(v *model.Verdict) *DenialError {
	return &DenialError{Verdict: v}
}

// KindOf returns the taxonomy kind of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var de *DenialError
	if errors.As(err, &de) {
		return KindCompliance
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// HTTPStatus maps a classified error to its response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindCompliance:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
