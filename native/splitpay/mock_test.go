package splitpay

import (
	"errors"

	"github.com/holiman/uint256"
)

type mockSnapshot struct {
	owner         [20]byte
	managers      map[[20]byte]bool
	beneficiaries []*Beneficiary
	approvals     map[[40]byte]*Approval
	totals        *Totals
	params        map[string][]byte
}

type mockState struct {
	mockSnapshot
	snapshots []mockSnapshot
}

func newMockState() *mockState {
	return &mockState{mockSnapshot: mockSnapshot{
		managers:  make(map[[20]byte]bool),
		approvals: make(map[[40]byte]*Approval),
		totals:    &Totals{},
		params:    make(map[string][]byte),
	}}
}

func (s mockSnapshot) clone() mockSnapshot {
	out := mockSnapshot{
		owner:     s.owner,
		managers:  make(map[[20]byte]bool, len(s.managers)),
		approvals: make(map[[40]byte]*Approval, len(s.approvals)),
		totals:    s.totals.Clone(),
		params:    make(map[string][]byte, len(s.params)),
	}
	for k, v := range s.managers {
		out.managers[k] = v
	}
	for _, b := range s.beneficiaries {
		out.beneficiaries = append(out.beneficiaries, b.Clone())
	}
	for k, v := range s.approvals {
		out.approvals[k] = v.Clone()
	}
	for k, v := range s.params {
		out.params[k] = append([]byte(nil), v...)
	}
	return out
}

func approvalKey(owner, spender [20]byte) [40]byte {
	var key [40]byte
	copy(key[:20], owner[:])
	copy(key[20:], spender[:])
	return key
}

func (m *mockState) SplitpayOwner() ([20]byte, error) { return m.owner, nil }

func (m *mockState) SplitpaySetOwner(owner [20]byte) error {
	m.owner = owner
	return nil
}

func (m *mockState) SplitpayIsManager(addr [20]byte) (bool, error) {
	return m.managers[addr], nil
}

func (m *mockState) SplitpaySetManager(addr [20]byte, enabled bool) error {
	if enabled {
		m.managers[addr] = true
	} else {
		delete(m.managers, addr)
	}
	return nil
}

func (m *mockState) SplitpayBeneficiaries() ([]*Beneficiary, error) {
	out := make([]*Beneficiary, 0, len(m.beneficiaries))
	for _, b := range m.beneficiaries {
		out = append(out, b.Clone())
	}
	return out, nil
}

func (m *mockState) SplitpayPutBeneficiaries(list []*Beneficiary) error {
	m.beneficiaries = m.beneficiaries[:0:0]
	for _, b := range list {
		m.beneficiaries = append(m.beneficiaries, b.Clone())
	}
	return nil
}

func (m *mockState) SplitpayApprovalGet(owner, spender [20]byte) (*Approval, bool, error) {
	approval, ok := m.approvals[approvalKey(owner, spender)]
	if !ok {
		return nil, false, nil
	}
	return approval.Clone(), true, nil
}

func (m *mockState) SplitpayApprovalPut(approval *Approval) error {
	m.approvals[approvalKey(approval.Owner, approval.Spender)] = approval.Clone()
	return nil
}

func (m *mockState) SplitpayApprovalDelete(owner, spender [20]byte) error {
	delete(m.approvals, approvalKey(owner, spender))
	return nil
}

func (m *mockState) SplitpayTotals() (*Totals, error) { return m.totals.Clone(), nil }

func (m *mockState) SplitpayPutTotals(totals *Totals) error {
	m.totals = totals.Clone()
	return nil
}

func (m *mockState) ParamStoreGet(name string) ([]byte, bool, error) {
	value, ok := m.params[name]
	return value, ok, nil
}

func (m *mockState) ParamStoreSet(name string, value []byte) error {
	m.params[name] = append([]byte(nil), value...)
	return nil
}

func (m *mockState) Snapshot() int {
	m.snapshots = append(m.snapshots, m.mockSnapshot.clone())
	return len(m.snapshots) - 1
}

func (m *mockState) RevertToSnapshot(id int) {
	if id < 0 || id >= len(m.snapshots) {
		return
	}
	m.mockSnapshot = m.snapshots[id]
	m.snapshots = m.snapshots[:id]
}

var errHostRefused = errors.New("host refused transfer")

type transfer struct {
	to     [20]byte
	amount *uint256.Int
}

type mockHost struct {
	balance   *uint256.Int
	transfers []transfer
	fail      bool
	reserved  map[[20]byte]bool
}

func newMockHost(balance uint64) *mockHost {
	return &mockHost{balance: uint256.NewInt(balance)}
}

func (h *mockHost) Transfer(to [20]byte, amount *uint256.Int) error {
	if h.fail {
		return errHostRefused
	}
	if h.balance.Lt(amount) {
		return errHostRefused
	}
	h.balance = new(uint256.Int).Sub(h.balance, amount)
	h.transfers = append(h.transfers, transfer{to: to, amount: new(uint256.Int).Set(amount)})
	return nil
}

func (h *mockHost) ContractBalance() (*uint256.Int, error) {
	return new(uint256.Int).Set(h.balance), nil
}

func (h *mockHost) Reserved(addr [20]byte) bool { return h.reserved[addr] }
