package splitpay

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"splitpay/core/events"
	"splitpay/core/types"
)

// ModuleName identifies the ledger in the shared pause configuration.
const ModuleName = "splitpay"

type engineState interface {
	SplitpayOwner() ([20]byte, error)
	SplitpaySetOwner(owner [20]byte) error
	SplitpayIsManager(addr [20]byte) (bool, error)
	SplitpaySetManager(addr [20]byte, enabled bool) error
	SplitpayBeneficiaries() ([]*Beneficiary, error)
	SplitpayPutBeneficiaries(list []*Beneficiary) error
	SplitpayApprovalGet(owner, spender [20]byte) (*Approval, bool, error)
	SplitpayApprovalPut(approval *Approval) error
	SplitpayApprovalDelete(owner, spender [20]byte) error
	SplitpayTotals() (*Totals, error)
	SplitpayPutTotals(totals *Totals) error
	ParamStoreGet(name string) ([]byte, bool, error)
	ParamStoreSet(name string, value []byte) error
	Snapshot() int
	RevertToSnapshot(id int)
}

// Host is the environment the ledger pays out through.
type Host interface {
	// Transfer moves amount from the pooled contract balance to the
	// recipient.
	Transfer(to [20]byte, amount *uint256.Int) error
	// ContractBalance reports the pooled balance held on behalf of the
	// ledger.
	ContractBalance() (*uint256.Int, error)
	// Reserved reports accounts Transfer always refuses.
	Reserved(addr [20]byte) bool
}

// Engine implements the splitting ledger: role registry, pause gate,
// beneficiary ledger, distribution, allowances and withdrawals.
//
// Engine is not safe for concurrent use. Callers serialise operations and
// discard state on error.
type Engine struct {
	state   engineState
	host    Host
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a splitpay engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetHost configures the host used for payouts and balance queries.
func (e *Engine) SetHost(host Host) { e.host = host }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

// payable reports whether account may hold a ledger position.
func (e *Engine) payable(account [20]byte) bool {
	if isZeroAddress(account) {
		return false
	}
	return e.host == nil || !e.host.Reserved(account)
}

// payout runs the transfer to recipient and reverts every write made since
// snapshot when the host refuses it.
func (e *Engine) payout(snapshot int, to [20]byte, amount *uint256.Int) error {
	if e.host == nil {
		e.state.RevertToSnapshot(snapshot)
		return errNilHost
	}
	if err := e.host.Transfer(to, amount); err != nil {
		e.state.RevertToSnapshot(snapshot)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}
