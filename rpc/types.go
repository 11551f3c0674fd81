package rpc

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"splitpay/crypto"
	"splitpay/native/splitpay"
)

// BeneficiaryResponse is the wire form of a beneficiary record.
type BeneficiaryResponse struct {
	Account         string `json:"account"`
	SharePercentage uint8  `json:"sharePercentage"`
	PendingBalance  string `json:"pendingBalance"`
	TotalWithdrawn  string `json:"totalWithdrawn"`
}

// ApprovalResponse is the wire form of an approval. Live reports whether the
// record can still be spent against.
type ApprovalResponse struct {
	Owner     string  `json:"owner"`
	Spender   string  `json:"spender"`
	Amount    string  `json:"amount"`
	ExpiresAt *uint64 `json:"expiresAt,omitempty"`
	Allowance string  `json:"allowance"`
	Live      bool    `json:"live"`
}

// StatsResponse reports the ledger counters.
type StatsResponse struct {
	TotalReceived    string `json:"totalReceived"`
	TotalDistributed string `json:"totalDistributed"`
	ContractBalance  string `json:"contractBalance"`
}

// JournalEntry is a persisted event as served by the events endpoint.
type JournalEntry struct {
	Seq        uint64            `json:"seq"`
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Digest     string            `json:"digest"`
	CreatedAt  int64             `json:"createdAt"`
}

// AmountRequest carries a decimal amount.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// AccountRequest names an account.
type AccountRequest struct {
	Account string `json:"account"`
}

// BeneficiaryRequest registers a beneficiary.
type BeneficiaryRequest struct {
	Account string `json:"account"`
	Share   uint8  `json:"share"`
}

// ApprovalRequest grants an allowance.
type ApprovalRequest struct {
	Spender   string  `json:"spender"`
	Amount    string  `json:"amount"`
	ExpiresAt *uint64 `json:"expiresAt,omitempty"`
}

// DelegatedWithdrawalRequest withdraws from owner against an allowance.
type DelegatedWithdrawalRequest struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

// OwnerRequest hands over ownership.
type OwnerRequest struct {
	Owner string `json:"owner"`
}

// FaucetRequest mints development funds.
type FaucetRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// StatusResponse acknowledges a committed call.
type StatusResponse struct {
	Status string `json:"status"`
}

var okResponse = StatusResponse{Status: "ok"}

func formatAddress(addr [20]byte) string {
	return crypto.AddressFromArray(addr).String()
}

func parseAddress(field, raw string) ([20]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("%s is required", field)
	}
	addr, err := crypto.ParseAddress(trimmed)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid %s: %v", field, err)
	}
	return addr.Array(), nil
}

func parseAmount(field, raw string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", field, err)
	}
	return amount, nil
}

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func beneficiaryResponse(b *splitpay.Beneficiary) BeneficiaryResponse {
	return BeneficiaryResponse{
		Account:         formatAddress(b.Account),
		SharePercentage: b.SharePercentage,
		PendingBalance:  formatAmount(b.PendingBalance),
		TotalWithdrawn:  formatAmount(b.TotalWithdrawn),
	}
}
