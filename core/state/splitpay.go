package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"splitpay/native/splitpay"
)

type storedBeneficiary struct {
	Account   [20]byte
	Share     uint8
	Pending   *big.Int
	Withdrawn *big.Int
}

type storedApproval struct {
	Owner     [20]byte
	Spender   [20]byte
	Amount    *big.Int
	HasExpiry bool
	ExpiresAt uint64
}

type storedTotals struct {
	Received    *big.Int
	Distributed *big.Int
}

func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v.ToBig()
}

func fromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("state: negative amount")
	}
	out, overflow := uint256.FromBig(v)
	if overflow || !splitpay.ValidAmount(out) {
		return nil, fmt.Errorf("state: amount exceeds 128 bits")
	}
	return out, nil
}

// SplitpayOwner returns the recorded owner. The zero address is returned
// when no owner has been set.
func (m *Manager) SplitpayOwner() ([20]byte, error) {
	var owner [20]byte
	if _, err := m.KVGet(splitpayOwnerKey, &owner); err != nil {
		return [20]byte{}, err
	}
	return owner, nil
}

// SplitpaySetOwner records the owner.
func (m *Manager) SplitpaySetOwner(owner [20]byte) error {
	return m.KVPut(splitpayOwnerKey, owner)
}

// SplitpayIsManager reports whether addr holds the manager role.
func (m *Manager) SplitpayIsManager(addr [20]byte) (bool, error) {
	var flag bool
	ok, err := m.KVGet(splitpayManagerKey(addr), &flag)
	if err != nil {
		return false, err
	}
	return ok && flag, nil
}

// SplitpaySetManager grants or clears the manager role for addr.
func (m *Manager) SplitpaySetManager(addr [20]byte, enabled bool) error {
	if !enabled {
		return m.KVDelete(splitpayManagerKey(addr))
	}
	return m.KVPut(splitpayManagerKey(addr), true)
}

// SplitpayBeneficiaries loads the ordered beneficiary list.
func (m *Manager) SplitpayBeneficiaries() ([]*splitpay.Beneficiary, error) {
	var stored []storedBeneficiary
	if _, err := m.KVGet(splitpayBeneficiariesKey, &stored); err != nil {
		return nil, err
	}
	out := make([]*splitpay.Beneficiary, 0, len(stored))
	for _, record := range stored {
		pending, err := fromBig(record.Pending)
		if err != nil {
			return nil, err
		}
		withdrawn, err := fromBig(record.Withdrawn)
		if err != nil {
			return nil, err
		}
		out = append(out, &splitpay.Beneficiary{
			Account:         record.Account,
			SharePercentage: record.Share,
			PendingBalance:  pending,
			TotalWithdrawn:  withdrawn,
		})
	}
	return out, nil
}

// SplitpayPutBeneficiaries replaces the ordered beneficiary list.
func (m *Manager) SplitpayPutBeneficiaries(list []*splitpay.Beneficiary) error {
	stored := make([]storedBeneficiary, 0, len(list))
	for _, b := range list {
		if b == nil {
			return fmt.Errorf("splitpay: nil beneficiary")
		}
		stored = append(stored, storedBeneficiary{
			Account:   b.Account,
			Share:     b.SharePercentage,
			Pending:   toBig(b.PendingBalance),
			Withdrawn: toBig(b.TotalWithdrawn),
		})
	}
	return m.KVPut(splitpayBeneficiariesKey, stored)
}

// SplitpayApprovalGet loads the approval granted by owner to spender.
func (m *Manager) SplitpayApprovalGet(owner, spender [20]byte) (*splitpay.Approval, bool, error) {
	var stored storedApproval
	ok, err := m.KVGet(splitpayApprovalKey(owner, spender), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	amount, err := fromBig(stored.Amount)
	if err != nil {
		return nil, false, err
	}
	approval := &splitpay.Approval{
		Owner:   stored.Owner,
		Spender: stored.Spender,
		Amount:  amount,
	}
	if stored.HasExpiry {
		expires := stored.ExpiresAt
		approval.ExpiresAt = &expires
	}
	return approval, true, nil
}

// SplitpayApprovalPut stores the approval keyed by its owner and spender.
func (m *Manager) SplitpayApprovalPut(approval *splitpay.Approval) error {
	if approval == nil {
		return fmt.Errorf("splitpay: nil approval")
	}
	stored := storedApproval{
		Owner:   approval.Owner,
		Spender: approval.Spender,
		Amount:  toBig(approval.Amount),
	}
	if approval.ExpiresAt != nil {
		stored.HasExpiry = true
		stored.ExpiresAt = *approval.ExpiresAt
	}
	return m.KVPut(splitpayApprovalKey(approval.Owner, approval.Spender), stored)
}

// SplitpayApprovalDelete removes the approval for (owner, spender).
func (m *Manager) SplitpayApprovalDelete(owner, spender [20]byte) error {
	return m.KVDelete(splitpayApprovalKey(owner, spender))
}

// SplitpayTotals loads the reporting counters.
func (m *Manager) SplitpayTotals() (*splitpay.Totals, error) {
	var stored storedTotals
	if _, err := m.KVGet(splitpayTotalsKey, &stored); err != nil {
		return nil, err
	}
	received, err := fromBig(stored.Received)
	if err != nil {
		return nil, err
	}
	distributed, err := fromBig(stored.Distributed)
	if err != nil {
		return nil, err
	}
	return &splitpay.Totals{Received: received, Distributed: distributed}, nil
}

// SplitpayPutTotals stores the reporting counters.
func (m *Manager) SplitpayPutTotals(totals *splitpay.Totals) error {
	if totals == nil {
		return fmt.Errorf("splitpay: nil totals")
	}
	return m.KVPut(splitpayTotalsKey, storedTotals{
		Received:    toBig(totals.Received),
		Distributed: toBig(totals.Distributed),
	})
}
