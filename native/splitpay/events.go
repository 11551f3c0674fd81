package splitpay

import (
	"strconv"

	"github.com/holiman/uint256"

	"splitpay/core/events"
	"splitpay/core/types"
)

const (
	// EventTypeFundsReceived is emitted for every accepted payment.
	EventTypeFundsReceived = "splitpay.funds.received"
	// EventTypeFundsDistributed is emitted when a payment is split across the ledger.
	EventTypeFundsDistributed = "splitpay.funds.distributed"
	// EventTypeBeneficiaryAdded is emitted when a beneficiary is registered.
	EventTypeBeneficiaryAdded = "splitpay.beneficiary.added"
	// EventTypeBeneficiaryRemoved is emitted when a beneficiary is removed and paid out.
	EventTypeBeneficiaryRemoved = "splitpay.beneficiary.removed"
	// EventTypeApprovalGranted is emitted when an allowance is set or overwritten.
	EventTypeApprovalGranted = "splitpay.approval.granted"
	// EventTypeApprovalRevoked is emitted when an allowance is revoked.
	EventTypeApprovalRevoked = "splitpay.approval.revoked"
	// EventTypeWithdrawal is emitted when a beneficiary withdraws for themselves.
	EventTypeWithdrawal = "splitpay.withdrawal"
	// EventTypeDelegatedWithdrawal is emitted when a spender withdraws against an allowance.
	EventTypeDelegatedWithdrawal = "splitpay.withdrawal.delegated"
	EventTypeManagerAdded        = "splitpay.manager.added"
	EventTypeManagerRemoved      = "splitpay.manager.removed"
	EventTypeOwnershipTransfer   = "splitpay.ownership.transferred"
	EventTypeContractPaused      = "splitpay.contract.paused"
	EventTypeContractUnpaused    = "splitpay.contract.unpaused"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func amountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// FundsReceivedEvent records an incoming payment.
func FundsReceivedEvent(from [20]byte, amount *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeFundsReceived,
		Attributes: map[string]string{
			"from":   hexAddr(from),
			"amount": amountString(amount),
		},
	}
}

// FundsDistributedEvent records a split of amount across count beneficiaries.
// credited is the sum actually added to pending balances.
func FundsDistributedEvent(amount *uint256.Int, count int, credited *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeFundsDistributed,
		Attributes: map[string]string{
			"amount":        amountString(amount),
			"beneficiaries": strconv.Itoa(count),
			"credited":      amountString(credited),
		},
	}
}

// BeneficiaryAddedEvent records a registration.
func BeneficiaryAddedEvent(account [20]byte, share uint8) *types.Event {
	return &types.Event{
		Type: EventTypeBeneficiaryAdded,
		Attributes: map[string]string{
			"account": hexAddr(account),
			"share":   strconv.Itoa(int(share)),
		},
	}
}

// BeneficiaryRemovedEvent records a removal and the pending balance paid out.
func BeneficiaryRemovedEvent(account [20]byte, paidOut *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeBeneficiaryRemoved,
		Attributes: map[string]string{
			"account": hexAddr(account),
			"paidOut": amountString(paidOut),
		},
	}
}

// ApprovalGrantedEvent records a new or overwritten allowance.
func ApprovalGrantedEvent(approval *Approval) *types.Event {
	attrs := map[string]string{
		"owner":   hexAddr(approval.Owner),
		"spender": hexAddr(approval.Spender),
		"amount":  amountString(approval.Amount),
	}
	if approval.ExpiresAt != nil {
		attrs["expiresAt"] = strconv.FormatUint(*approval.ExpiresAt, 10)
	}
	return &types.Event{Type: EventTypeApprovalGranted, Attributes: attrs}
}

// ApprovalRevokedEvent records a revocation.
func ApprovalRevokedEvent(owner, spender [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeApprovalRevoked,
		Attributes: map[string]string{
			"owner":   hexAddr(owner),
			"spender": hexAddr(spender),
		},
	}
}

// WithdrawalEvent records a self-service withdrawal.
func WithdrawalEvent(account [20]byte, amount *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawal,
		Attributes: map[string]string{
			"account": hexAddr(account),
			"amount":  amountString(amount),
		},
	}
}

// DelegatedWithdrawalEvent records a withdrawal made by spender on behalf of owner.
func DelegatedWithdrawalEvent(owner, spender [20]byte, amount, remaining *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDelegatedWithdrawal,
		Attributes: map[string]string{
			"owner":     hexAddr(owner),
			"spender":   hexAddr(spender),
			"amount":    amountString(amount),
			"remaining": amountString(remaining),
		},
	}
}

// ManagerEvent records a manager role change.
func ManagerEvent(eventType string, account [20]byte) *types.Event {
	return &types.Event{
		Type:       eventType,
		Attributes: map[string]string{"account": hexAddr(account)},
	}
}

// OwnershipTransferredEvent records an owner change.
func OwnershipTransferredEvent(previous, next [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeOwnershipTransfer,
		Attributes: map[string]string{
			"previous": hexAddr(previous),
			"owner":    hexAddr(next),
		},
	}
}

// PauseEvent records a pause toggle by caller.
func PauseEvent(eventType string, caller [20]byte) *types.Event {
	return &types.Event{
		Type:       eventType,
		Attributes: map[string]string{"by": hexAddr(caller)},
	}
}
