package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("sender is required"), KindValidation},
		{"signing", Signingf("derive key", errors.New("bad mnemonic")), KindSigning},
		{"infra", Infraf("connect", errors.New("refused")), KindInfra},
		{"execution", Executionf("contract rejected", nil), KindExecution},
		{"denial", Denial(&model.Verdict{Allowed: false}), KindCompliance},
		{"wrapped denial", fmt.Errorf("authorize: %w", Denial(&model.Verdict{})), KindCompliance},
		{"wrapped classified", fmt.Errorf("outer: %w", Validation("bad input")), KindValidation},
		{"unclassified", errors.New("plain"), Kind("")},
		{"nil", nil, Kind("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("bad")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Denial(&model.Verdict{})))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Infraf("down", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Signingf("no key", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("socket closed")
	err := Infraf("submit execution", inner)

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "submit execution: socket closed", err.Error())
}

func TestSentinelBranching(t *testing.T) {
	err := &Error{Kind: KindValidation, Msg: "nonce already consumed for sender", Err: ErrNonceConsumed}

	assert.ErrorIs(t, err, ErrNonceConsumed)
	assert.Equal(t, KindValidation, KindOf(err))
}
