package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer reader.Close()
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "request body required")
			return false
		}
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid payload: "+err.Error())
		return false
	}
	return true
}

func (s *Server) caller(w http.ResponseWriter, r *http.Request) ([20]byte, bool) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, errMissingToken.Error())
	}
	return caller, ok
}

func pathAddress(w http.ResponseWriter, r *http.Request, param string) ([20]byte, bool) {
	addr, err := parseAddress(param, chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return [20]byte{}, false
	}
	return addr, true
}

func (s *Server) commit(w http.ResponseWriter, err error) {
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse)
}

func (s *Server) handleOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := s.runtime.Owner(r.Context())
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": formatAddress(owner)})
}

func (s *Server) handleIsManager(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "addr")
	if !ok {
		return
	}
	manager, err := s.runtime.IsManager(r.Context(), addr)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": formatAddress(addr), "manager": manager})
}

func (s *Server) handleBeneficiaries(w http.ResponseWriter, r *http.Request) {
	list, err := s.runtime.Beneficiaries(r.Context())
	if err != nil {
		writeCallError(w, err)
		return
	}
	out := make([]BeneficiaryResponse, 0, len(list))
	for _, b := range list {
		out = append(out, beneficiaryResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBeneficiary(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "addr")
	if !ok {
		return
	}
	b, found, err := s.runtime.Beneficiary(r.Context(), addr)
	if err != nil {
		writeCallError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, codeNotFound, "beneficiary not found")
		return
	}
	writeJSON(w, http.StatusOK, beneficiaryResponse(b))
}

func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathAddress(w, r, "owner")
	if !ok {
		return
	}
	spender, ok := pathAddress(w, r, "spender")
	if !ok {
		return
	}
	record, found, err := s.runtime.ApprovalRecord(r.Context(), owner, spender)
	if err != nil {
		writeCallError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, codeNotFound, "approval not found")
		return
	}
	allowance, err := s.runtime.Allowance(r.Context(), owner, spender)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ApprovalResponse{
		Owner:     formatAddress(record.Owner),
		Spender:   formatAddress(record.Spender),
		Amount:    formatAmount(record.Amount),
		ExpiresAt: record.ExpiresAt,
		Allowance: formatAmount(allowance),
		Live:      !allowance.IsZero(),
	})
}

func (s *Server) handleShares(w http.ResponseWriter, r *http.Request) {
	total, err := s.runtime.TotalShares(r.Context())
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint8{"totalShares": total})
}

func (s *Server) handlePaused(w http.ResponseWriter, r *http.Request) {
	paused, err := s.runtime.IsPaused(r.Context())
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": paused})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.runtime.Stats(r.Context())
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		TotalReceived:    formatAmount(stats.TotalReceived),
		TotalDistributed: formatAmount(stats.TotalDistributed),
		ContractBalance:  formatAmount(stats.ContractBalance),
	})
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "addr")
	if !ok {
		return
	}
	balance, err := s.runtime.AccountBalance(r.Context(), addr)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"account": formatAddress(addr), "balance": formatAmount(balance)})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "event journal disabled")
		return
	}
	query := r.URL.Query()
	var after uint64
	if raw := strings.TrimSpace(query.Get("after")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid after cursor")
			return
		}
		after = parsed
	}
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	entries, err := s.journal.List(r.Context(), after, limit, query.Get("type"))
	if err != nil {
		s.logger.Error("list journal", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
		return
	}
	out := make([]JournalEntry, 0, len(entries))
	for i := range entries {
		evt, err := entries[i].Event()
		if err != nil {
			s.logger.Error("decode journal entry", "seq", entries[i].Seq, "error", err)
			continue
		}
		out = append(out, JournalEntry{
			Seq:        entries[i].Seq,
			ID:         entries[i].ID.String(),
			Type:       evt.Type,
			Attributes: evt.Attributes,
			Digest:     entries[i].Digest,
			CreatedAt:  entries[i].CreatedAt.Unix(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req AmountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	s.commit(w, s.runtime.Pay(r.Context(), caller, amount))
}

func (s *Server) handleAddBeneficiary(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req BeneficiaryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	s.commit(w, s.runtime.AddBeneficiary(r.Context(), caller, account, req.Share))
}

func (s *Server) handleRemoveBeneficiary(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	account, ok := pathAddress(w, r, "addr")
	if !ok {
		return
	}
	s.commit(w, s.runtime.RemoveBeneficiary(r.Context(), caller, account))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req ApprovalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	spender, err := parseAddress("spender", req.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	s.commit(w, s.runtime.Approve(r.Context(), caller, spender, amount, req.ExpiresAt))
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	spender, ok := pathAddress(w, r, "spender")
	if !ok {
		return
	}
	s.commit(w, s.runtime.RevokeApproval(r.Context(), caller, spender))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req AmountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	s.commit(w, s.runtime.Withdraw(r.Context(), caller, amount))
}

func (s *Server) handleWithdrawAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	s.commit(w, s.runtime.WithdrawAll(r.Context(), caller))
}

func (s *Server) handleWithdrawFrom(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req DelegatedWithdrawalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	s.commit(w, s.runtime.WithdrawFrom(r.Context(), caller, owner, amount))
}

func (s *Server) handleAddManager(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req AccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	s.commit(w, s.runtime.AddManager(r.Context(), caller, account))
}

func (s *Server) handleRemoveManager(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	account, ok := pathAddress(w, r, "addr")
	if !ok {
		return
	}
	s.commit(w, s.runtime.RemoveManager(r.Context(), caller, account))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	s.commit(w, s.runtime.Pause(r.Context(), caller))
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	s.commit(w, s.runtime.Unpause(r.Context(), caller))
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req OwnerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// The zero address is accepted here so the ledger reports it as an
	// invalid beneficiary.
	next, err := parseAddress("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	s.commit(w, s.runtime.TransferOwnership(r.Context(), caller, next))
}

func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req FaucetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account := caller
	if strings.TrimSpace(req.Account) != "" {
		parsed, err := parseAddress("account", req.Account)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
			return
		}
		account = parsed
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	s.commit(w, s.runtime.Credit(r.Context(), account, amount))
}
