package bank

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	ErrInvalidRecipient  = errors.New("bank: invalid recipient")
	ErrBalanceOverflow   = errors.New("bank: balance overflow")
	errNilState          = errors.New("bank: state not configured")
)

const maxBalanceBits = 128

// PoolAddress is the account holding the value attached to payments until it
// is withdrawn.
var PoolAddress = [20]byte{0x53, 0x50, 0x4c, 0x49, 0x54} // "SPLIT"

type balanceState interface {
	Balance(addr [20]byte) (*uint256.Int, error)
	SetBalance(addr [20]byte, amount *uint256.Int) error
}

// Vault moves value between host accounts and the ledger's pooled balance.
// It implements the payout side of the ledger host.
type Vault struct {
	state balanceState
	pool  [20]byte
}

// NewVault constructs a vault over the supplied balance store.
func NewVault(state balanceState) *Vault {
	return &Vault{state: state, pool: PoolAddress}
}

// Pool returns the pooled account address.
func (v *Vault) Pool() [20]byte { return v.pool }

// Reserved reports whether addr can never receive a payout: the null identity
// and the pool itself.
func (v *Vault) Reserved(addr [20]byte) bool {
	return addr == [20]byte{} || addr == v.pool
}

// Credit mints amount into addr. Used by genesis allocation and the dev
// faucet.
func (v *Vault) Credit(addr [20]byte, amount *uint256.Int) error {
	if v == nil || v.state == nil {
		return errNilState
	}
	if v.Reserved(addr) {
		return ErrInvalidRecipient
	}
	if amount == nil || amount.IsZero() {
		return nil
	}
	current, err := v.state.Balance(addr)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow || next.BitLen() > maxBalanceBits {
		return ErrBalanceOverflow
	}
	return v.state.SetBalance(addr, next)
}

func (v *Vault) move(from, to [20]byte, amount *uint256.Int) error {
	if v == nil || v.state == nil {
		return errNilState
	}
	if amount == nil || amount.IsZero() || from == to {
		return nil
	}
	source, err := v.state.Balance(from)
	if err != nil {
		return err
	}
	if source.Lt(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, source.Dec(), amount.Dec())
	}
	target, err := v.state.Balance(to)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(target, amount)
	if overflow || next.BitLen() > maxBalanceBits {
		return ErrBalanceOverflow
	}
	if err := v.state.SetBalance(from, new(uint256.Int).Sub(source, amount)); err != nil {
		return err
	}
	return v.state.SetBalance(to, next)
}

// Attach moves the value sent with a payment from the payer into the pool.
func (v *Vault) Attach(from [20]byte, amount *uint256.Int) error {
	return v.move(from, v.pool, amount)
}

// Transfer pays amount out of the pool to the recipient.
func (v *Vault) Transfer(to [20]byte, amount *uint256.Int) error {
	if v.Reserved(to) {
		return ErrInvalidRecipient
	}
	return v.move(v.pool, to, amount)
}

// ContractBalance reports the pooled balance.
func (v *Vault) ContractBalance() (*uint256.Int, error) {
	return v.AccountBalance(v.pool)
}

// AccountBalance reports the host balance of addr.
func (v *Vault) AccountBalance(addr [20]byte) (*uint256.Int, error) {
	if v == nil || v.state == nil {
		return nil, errNilState
	}
	return v.state.Balance(addr)
}
