package api

import (
	"errors"
	"net/http"

	"github.com/Utkarsh575/wf-hack-misfits/internal/domain/model"
	"github.com/Utkarsh575/wf-hack-misfits/internal/fault"
	"github.com/Utkarsh575/wf-hack-misfits/internal/transfer"
)

// checkHandler builds a membership-check handler for one deny list. The
// membership boolean is keyed by the list's own name, so consumers read
// {"address": ..., "sanctioned": true} and so on per kind.
func (s *Server) checkHandler(kind model.Classification) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		if address == "" {
			http.Error(w, `{"success":false,"error":"address is required"}`, http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"address":     address,
			kind.String(): s.registry.Contains(kind, address),
		})
	}
}

type addListRequest struct {
	Address string `json:"address"`
}

// addHandler builds an insert handler for one deny list. Duplicate
// inserts return 409 so operators notice redundant reports.
func (s *Server) addHandler(kind model.Classification) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addListRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if req.Address == "" {
			http.Error(w, `{"success":false,"error":"address is required"}`, http.StatusBadRequest)
			return
		}

		if err := s.registry.Add(r.Context(), kind, req.Address); err != nil {
			if errors.Is(err, fault.ErrAlreadyListed) {
				writeJSON(w, http.StatusConflict, errorBody{Error: "address already listed"})
				return
			}
			s.writeFault(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"address": req.Address,
			"kind":    kind.String(),
		})
	}
}

// handleAllFlagged returns the deduplicated union of every deny list.
// The sanctions "all" view has always merged every list so downstream
// consumers can treat it as the complete block set.
func (s *Server) handleAllFlagged(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sanctioned": s.registry.AllFlagged(),
	})
}

// listAllHandler builds an enumeration handler for a single deny list.
func (s *Server) listAllHandler(kind model.Classification, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			key: s.registry.List(kind),
		})
	}
}

type walletResponse struct {
	Label     string `json:"label"`
	Address   string `json:"address"`
	IsDefault bool   `json:"isDefault"`
}

func (s *Server) handleWallets(w http.ResponseWriter, r *http.Request) {
	if s.keyring == nil {
		http.Error(w, `{"success":false,"error":"keyring is not configured"}`, http.StatusInternalServerError)
		return
	}
	wallets := s.keyring.Wallets()
	resp := make([]walletResponse, len(wallets))
	for i, wlt := range wallets {
		resp[i] = walletResponse{Label: wlt.Label, Address: wlt.Address, IsDefault: wlt.IsDefault}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	if s.keyring == nil || s.reader == nil {
		http.Error(w, `{"success":false,"error":"balance reads are not configured"}`, http.StatusInternalServerError)
		return
	}
	label := r.PathValue("label")
	wlt, ok := s.keyring.ByLabel(label)
	if !ok {
		http.Error(w, `{"success":false,"error":"unknown wallet label"}`, http.StatusBadRequest)
		return
	}

	coins, err := s.reader.Balances(r.Context(), wlt.Address)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"label":    wlt.Label,
		"address":  wlt.Address,
		"balances": coins,
	})
}

// handleAddressBalance serves balance reads for a raw bech32 address.
func (s *Server) handleAddressBalance(w http.ResponseWriter, r *http.Request) {
	if s.reader == nil {
		http.Error(w, `{"success":false,"error":"balance reads are not configured"}`, http.StatusInternalServerError)
		return
	}
	address := r.URL.Query().Get("address")
	if address == "" {
		http.Error(w, `{"success":false,"error":"address query param required"}`, http.StatusBadRequest)
		return
	}

	coins, err := s.reader.Balances(r.Context(), address)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":  address,
		"balances": coins,
	})
}

func (s *Server) handleContractBalance(w http.ResponseWriter, r *http.Request) {
	if s.reader == nil {
		http.Error(w, `{"success":false,"error":"balance reads are not configured"}`, http.StatusInternalServerError)
		return
	}
	// A query param overrides the configured contract for ad-hoc lookups.
	address := r.URL.Query().Get("address")
	if address == "" {
		address = s.contract
	}
	if address == "" {
		http.Error(w, `{"success":false,"error":"contract address is not configured"}`, http.StatusBadRequest)
		return
	}

	coins, err := s.reader.Balances(r.Context(), address)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":  address,
		"balances": coins,
	})
}

func (s *Server) handleWalletTransfer(w http.ResponseWriter, r *http.Request) {
	if s.transfer == nil {
		http.Error(w, `{"success":false,"error":"transfers are not configured"}`, http.StatusInternalServerError)
		return
	}
	var req transfer.Request
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := s.transfer.Send(r.Context(), req)
	if err != nil {
		s.writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"txHash":  result.TxHash,
		"from":    result.From.Address,
		"to":      result.To.Address,
		"amount":  result.Amount,
		"denom":   result.Denom,
	})
}
