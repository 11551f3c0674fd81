package splitpay

import (
	"splitpay/native/common"
	paramsstate "splitpay/native/params/state"
)

// IsOwner reports whether caller is the recorded owner.
func (e *Engine) IsOwner(caller [20]byte) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	owner, err := e.state.SplitpayOwner()
	if err != nil {
		return false, err
	}
	return !isZeroAddress(owner) && owner == caller, nil
}

// IsManagerOrOwner reports whether caller may run administrative ledger
// operations. The owner is implicitly a manager.
func (e *Engine) IsManagerOrOwner(caller [20]byte) (bool, error) {
	owner, err := e.IsOwner(caller)
	if err != nil || owner {
		return owner, err
	}
	return e.state.SplitpayIsManager(caller)
}

func (e *Engine) requireOwner(caller [20]byte) error {
	ok, err := e.IsOwner(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) requireManager(caller [20]byte) error {
	ok, err := e.IsManagerOrOwner(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) ensureNotPaused() error {
	if err := e.ready(); err != nil {
		return err
	}
	paused, err := paramsstate.ModulePaused(e.state, ModuleName)
	if err != nil {
		return err
	}
	view := common.PauseFunc(func(string) bool { return paused })
	if err := common.Guard(view, ModuleName); err != nil {
		return ErrContractPaused
	}
	return nil
}

// AddManager grants the manager role to target. Owner only.
func (e *Engine) AddManager(caller, target [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.SplitpaySetManager(target, true); err != nil {
		return err
	}
	e.emit(ManagerEvent(EventTypeManagerAdded, target))
	return nil
}

// RemoveManager clears the manager role of target. Owner only.
func (e *Engine) RemoveManager(caller, target [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.SplitpaySetManager(target, false); err != nil {
		return err
	}
	e.emit(ManagerEvent(EventTypeManagerRemoved, target))
	return nil
}

// Pause halts every gated operation. Owner only and idempotent.
func (e *Engine) Pause(caller [20]byte) error {
	return e.setPaused(caller, true)
}

// Unpause resumes gated operations. Owner only and idempotent.
func (e *Engine) Unpause(caller [20]byte) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller [20]byte, paused bool) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := paramsstate.SetModulePaused(e.state, ModuleName, paused); err != nil {
		return err
	}
	if paused {
		e.emit(PauseEvent(EventTypeContractPaused, caller))
	} else {
		e.emit(PauseEvent(EventTypeContractUnpaused, caller))
	}
	return nil
}

// TransferOwnership hands the owner role to next. The null identity is
// rejected so the ledger can never become ownerless.
func (e *Engine) TransferOwnership(caller, next [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if isZeroAddress(next) {
		return ErrInvalidBeneficiary
	}
	if err := e.state.SplitpaySetOwner(next); err != nil {
		return err
	}
	e.emit(OwnershipTransferredEvent(caller, next))
	return nil
}

// InitOwner records the initial owner. It fails once an owner exists.
func (e *Engine) InitOwner(owner [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if isZeroAddress(owner) {
		return ErrInvalidBeneficiary
	}
	current, err := e.state.SplitpayOwner()
	if err != nil {
		return err
	}
	if !isZeroAddress(current) {
		return ErrUnauthorized
	}
	return e.state.SplitpaySetOwner(owner)
}
