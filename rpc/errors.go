package rpc

import (
	"encoding/json"
	"net/http"

	"splitpay/core"
	"splitpay/native/splitpay"
)

// Error kinds produced by the HTTP layer itself.
const (
	codeInvalidRequest  = "InvalidRequest"
	codeUnauthenticated = "Unauthenticated"
	codeRateLimited     = "RateLimited"
	codeNotFound        = "NotFound"
	codeUnavailable     = "Unavailable"
	codeInternal        = splitpay.CodeInternal
)

// ErrorBody is the error envelope returned on every failure.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the error kind and a human readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var statusByCode = map[string]int{
	splitpay.CodeUnauthorized:          http.StatusForbidden,
	splitpay.CodeInvalidBeneficiary:    http.StatusBadRequest,
	splitpay.CodeInvalidShare:          http.StatusBadRequest,
	splitpay.CodeInvalidAmount:         http.StatusBadRequest,
	splitpay.CodeInsufficientBalance:   http.StatusConflict,
	splitpay.CodeInsufficientAllowance: http.StatusConflict,
	splitpay.CodeNoFundsAvailable:      http.StatusConflict,
	splitpay.CodeBeneficiaryNotFound:   http.StatusNotFound,
	splitpay.CodeContractPaused:        http.StatusLocked,
	splitpay.CodeTransferFailed:        http.StatusBadGateway,
	core.CodeInsufficientFunds:         http.StatusConflict,
	core.CodeInvalidRecipient:          http.StatusBadRequest,
	core.CodeBalanceOverflow:           http.StatusConflict,
	core.CodeFaucetDisabled:            http.StatusForbidden,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// writeCallError reports a failed runtime call. Internal failures do not
// leak their message.
func writeCallError(w http.ResponseWriter, err error) {
	code := core.ErrorCode(err)
	status := StatusFor(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeError(w, status, code, message)
}
