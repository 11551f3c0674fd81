package splitpay

import (
	"github.com/holiman/uint256"

	paramsstate "splitpay/native/params/state"
)

// Owner returns the current owner.
func (e *Engine) Owner() ([20]byte, error) {
	if err := e.ready(); err != nil {
		return [20]byte{}, err
	}
	return e.state.SplitpayOwner()
}

// IsManager reports whether account holds the manager role. The owner is
// not reported unless it was added explicitly.
func (e *Engine) IsManager(account [20]byte) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.SplitpayIsManager(account)
}

// Beneficiaries returns copies of every beneficiary in insertion order.
func (e *Engine) Beneficiaries() ([]*Beneficiary, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	list, err := e.state.SplitpayBeneficiaries()
	if err != nil {
		return nil, err
	}
	out := make([]*Beneficiary, 0, len(list))
	for _, b := range list {
		out = append(out, b.Clone())
	}
	return out, nil
}

// Beneficiary returns a copy of the record for account.
func (e *Engine) Beneficiary(account [20]byte) (*Beneficiary, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	list, err := e.state.SplitpayBeneficiaries()
	if err != nil {
		return nil, false, err
	}
	idx := findBeneficiary(list, account)
	if idx < 0 {
		return nil, false, nil
	}
	return list[idx].Clone(), true, nil
}

// Allowance returns the amount spender may still withdraw from owner. Missing
// and expired approvals report zero.
func (e *Engine) Allowance(owner, spender [20]byte) (*uint256.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	approval, ok, err := e.liveApproval(owner, spender)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return cloneAmount(approval.Amount), nil
}

// ApprovalRecord returns the stored approval as is, including one that has
// expired but was never overwritten or revoked.
func (e *Engine) ApprovalRecord(owner, spender [20]byte) (*Approval, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	approval, ok, err := e.state.SplitpayApprovalGet(owner, spender)
	if err != nil || !ok {
		return nil, false, err
	}
	return approval.Clone(), true, nil
}

// TotalShares returns the summed share percentage of the ledger.
func (e *Engine) TotalShares() (uint8, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	list, err := e.state.SplitpayBeneficiaries()
	if err != nil {
		return 0, err
	}
	total := sumShares(list)
	if total > percentDenominator {
		total = percentDenominator
	}
	return uint8(total), nil
}

// IsPaused reports whether the pause gate is engaged.
func (e *Engine) IsPaused() (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return paramsstate.ModulePaused(e.state, ModuleName)
}

// Stats returns the reporting counters and the pooled contract balance.
func (e *Engine) Stats() (*Stats, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	totals, err := e.state.SplitpayTotals()
	if err != nil {
		return nil, err
	}
	balance := new(uint256.Int)
	if e.host != nil {
		if balance, err = e.host.ContractBalance(); err != nil {
			return nil, err
		}
	}
	return &Stats{
		TotalReceived:    cloneAmount(totals.Received),
		TotalDistributed: cloneAmount(totals.Distributed),
		ContractBalance:  cloneAmount(balance),
	}, nil
}
