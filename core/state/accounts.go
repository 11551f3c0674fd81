package state

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Balance returns the host balance of addr. Unknown accounts hold zero.
func (m *Manager) Balance(addr [20]byte) (*uint256.Int, error) {
	var stored *big.Int
	ok, err := m.KVGet(balanceKey(addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return fromBig(stored)
}

// SetBalance overwrites the host balance of addr. Zero balances are removed.
func (m *Manager) SetBalance(addr [20]byte, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return m.KVDelete(balanceKey(addr))
	}
	return m.KVPut(balanceKey(addr), toBig(amount))
}
