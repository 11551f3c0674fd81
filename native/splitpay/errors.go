package splitpay

import (
	"errors"
	"fmt"

	"splitpay/native/common"
)

var (
	ErrUnauthorized          = errors.New("splitpay: unauthorized")
	ErrInsufficientBalance   = errors.New("splitpay: insufficient balance")
	ErrInsufficientAllowance = errors.New("splitpay: insufficient allowance")
	ErrInvalidBeneficiary    = errors.New("splitpay: invalid beneficiary")
	ErrInvalidShare          = errors.New("splitpay: invalid share percentage")
	ErrNoFundsAvailable      = errors.New("splitpay: no funds available")
	ErrTransferFailed        = errors.New("splitpay: transfer failed")
	ErrBeneficiaryNotFound   = errors.New("splitpay: beneficiary not found")
	ErrContractPaused        = fmt.Errorf("splitpay: contract paused: %w", common.ErrModulePaused)
	ErrInvalidAmount         = errors.New("splitpay: amount exceeds 128 bits")

	errNilState = errors.New("splitpay engine: state not configured")
	errNilHost  = errors.New("splitpay engine: host not configured")
)

// Error kinds reported to callers. They are stable across releases.
const (
	CodeUnauthorized          = "Unauthorized"
	CodeInsufficientBalance   = "InsufficientBalance"
	CodeInsufficientAllowance = "InsufficientAllowance"
	CodeInvalidBeneficiary    = "InvalidBeneficiary"
	CodeInvalidShare          = "InvalidShare"
	CodeNoFundsAvailable      = "NoFundsAvailable"
	CodeTransferFailed        = "TransferFailed"
	CodeBeneficiaryNotFound   = "BeneficiaryNotFound"
	CodeContractPaused        = "ContractPaused"
	CodeInvalidAmount         = "InvalidAmount"
	CodeInternal              = "Internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, CodeUnauthorized},
	{ErrInsufficientBalance, CodeInsufficientBalance},
	{ErrInsufficientAllowance, CodeInsufficientAllowance},
	{ErrInvalidBeneficiary, CodeInvalidBeneficiary},
	{ErrInvalidShare, CodeInvalidShare},
	{ErrNoFundsAvailable, CodeNoFundsAvailable},
	{ErrTransferFailed, CodeTransferFailed},
	{ErrBeneficiaryNotFound, CodeBeneficiaryNotFound},
	{ErrContractPaused, CodeContractPaused},
	{ErrInvalidAmount, CodeInvalidAmount},
}

// Code maps err to its error kind. Unknown errors report CodeInternal and a
// nil error reports the empty string.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
