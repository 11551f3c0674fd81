package splitpay

import "github.com/holiman/uint256"

// Approve lets spender withdraw up to amount from the caller's pending
// balance until expiresAt (unix seconds, nil for no expiry). A new approval
// replaces the previous one for the same spender. Approving zero clears it.
func (e *Engine) Approve(caller, spender [20]byte, amount *uint256.Int, expiresAt *uint64) error {
	if err := e.ensureNotPaused(); err != nil {
		return err
	}
	list, err := e.state.SplitpayBeneficiaries()
	if err != nil {
		return err
	}
	if findBeneficiary(list, caller) < 0 {
		return ErrUnauthorized
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	if amount.IsZero() {
		if err := e.state.SplitpayApprovalDelete(caller, spender); err != nil {
			return err
		}
		e.emit(ApprovalRevokedEvent(caller, spender))
		return nil
	}
	approval := &Approval{
		Owner:   caller,
		Spender: spender,
		Amount:  cloneAmount(amount),
	}
	if expiresAt != nil {
		expires := *expiresAt
		approval.ExpiresAt = &expires
	}
	if err := e.state.SplitpayApprovalPut(approval); err != nil {
		return err
	}
	e.emit(ApprovalGrantedEvent(approval))
	return nil
}

// RevokeApproval removes the approval the caller granted to spender.
// Revoking an approval that does not exist succeeds.
func (e *Engine) RevokeApproval(caller, spender [20]byte) error {
	if err := e.ensureNotPaused(); err != nil {
		return err
	}
	_, ok, err := e.state.SplitpayApprovalGet(caller, spender)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := e.state.SplitpayApprovalDelete(caller, spender); err != nil {
		return err
	}
	e.emit(ApprovalRevokedEvent(caller, spender))
	return nil
}

// liveApproval returns the approval for (owner, spender) unless it is
// missing or expired at the current time.
func (e *Engine) liveApproval(owner, spender [20]byte) (*Approval, bool, error) {
	approval, ok, err := e.state.SplitpayApprovalGet(owner, spender)
	if err != nil || !ok {
		return nil, false, err
	}
	if approval.ExpiredAt(e.now()) || approval.Amount == nil || approval.Amount.IsZero() {
		return nil, false, nil
	}
	return approval, true, nil
}
