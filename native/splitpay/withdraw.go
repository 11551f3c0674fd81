package splitpay

import "github.com/holiman/uint256"

// Withdraw pays amount from the caller's pending balance to the caller.
func (e *Engine) Withdraw(caller [20]byte, amount *uint256.Int) error {
	if err := e.ensureNotPaused(); err != nil {
		return err
	}
	list, err := e.state.SplitpayBeneficiaries()
	if err != nil {
		return err
	}
	idx := findBeneficiary(list, caller)
	if idx < 0 {
		return ErrUnauthorized
	}
	if amount == nil || amount.IsZero() {
		return ErrNoFundsAvailable
	}
	return e.withdraw(list, idx, amount)
}

// WithdrawAll pays the caller's entire pending balance to the caller.
func (e *Engine) WithdrawAll(caller [20]byte) error {
	if err := e.ensureNotPaused(); err != nil {
		return err
	}
	list, err := e.state.SplitpayBeneficiaries()
	if err != nil {
		return err
	}
	idx := findBeneficiary(list, caller)
	if idx < 0 {
		return ErrUnauthorized
	}
	pending := cloneAmount(list[idx].PendingBalance)
	if pending.IsZero() {
		return ErrNoFundsAvailable
	}
	return e.withdraw(list, idx, pending)
}

func (e *Engine) withdraw(list []*Beneficiary, idx int, amount *uint256.Int) error {
	b := list[idx]
	if cloneAmount(b.PendingBalance).Lt(amount) {
		return ErrInsufficientBalance
	}
	b.PendingBalance = saturatingSub(b.PendingBalance, amount)
	b.TotalWithdrawn = saturatingAdd(b.TotalWithdrawn, amount)

	snapshot := e.state.Snapshot()
	if err := e.state.SplitpayPutBeneficiaries(list); err != nil {
		e.state.RevertToSnapshot(snapshot)
		return err
	}
	if err := e.payout(snapshot, b.Account, amount); err != nil {
		return err
	}
	e.emit(WithdrawalEvent(b.Account, amount))
	return nil
}

// WithdrawFrom debits amount from owner's pending balance against the
// allowance owner granted to spender, and pays it to spender.
func (e *Engine) WithdrawFrom(spender, owner [20]byte, amount *uint256.Int) error {
	if err := e.ensureNotPaused(); err != nil {
		return err
	}
	approval, ok, err := e.liveApproval(owner, spender)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientAllowance
	}
	if amount == nil || amount.IsZero() {
		return ErrNoFundsAvailable
	}
	if approval.Amount.Lt(amount) {
		return ErrInsufficientAllowance
	}
	list, err := e.state.SplitpayBeneficiaries()
	if err != nil {
		return err
	}
	idx := findBeneficiary(list, owner)
	if idx < 0 {
		return ErrBeneficiaryNotFound
	}
	b := list[idx]
	if cloneAmount(b.PendingBalance).Lt(amount) {
		return ErrInsufficientBalance
	}
	b.PendingBalance = saturatingSub(b.PendingBalance, amount)
	b.TotalWithdrawn = saturatingAdd(b.TotalWithdrawn, amount)
	remaining := saturatingSub(approval.Amount, amount)

	snapshot := e.state.Snapshot()
	if err := e.state.SplitpayPutBeneficiaries(list); err != nil {
		e.state.RevertToSnapshot(snapshot)
		return err
	}
	if remaining.IsZero() {
		err = e.state.SplitpayApprovalDelete(owner, spender)
	} else {
		approval.Amount = remaining
		err = e.state.SplitpayApprovalPut(approval)
	}
	if err != nil {
		e.state.RevertToSnapshot(snapshot)
		return err
	}
	if err := e.payout(snapshot, spender, amount); err != nil {
		return err
	}
	e.emit(DelegatedWithdrawalEvent(owner, spender, amount, remaining))
	return nil
}
