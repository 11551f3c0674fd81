package splitpay

func findBeneficiary(list []*Beneficiary, account [20]byte) int {
	for i, b := range list {
		if b != nil && b.Account == account {
			return i
		}
	}
	return -1
}

func sumShares(list []*Beneficiary) uint {
	var total uint
	for _, b := range list {
		if b != nil {
			total += uint(b.SharePercentage)
		}
	}
	return total
}

// AddBeneficiary registers account with the given share. The sum of all
// shares may never exceed 100.
func (e *Engine) AddBeneficiary(caller, account [20]byte, share uint8) error {
	if err := e.ensureNotPaused(); err != nil {
		return err
	}
	if err := e.requireManager(caller); err != nil {
		return err
	}
	if !e.payable(account) {
		return ErrInvalidBeneficiary
	}
	if share == 0 || share > percentDenominator {
		return ErrInvalidShare
	}
	list, err := e.state.SplitpayBeneficiaries()
	if err != nil {
		return err
	}
	if sumShares(list)+uint(share) > percentDenominator {
		return ErrInvalidShare
	}
	if findBeneficiary(list, account) >= 0 {
		return ErrInvalidBeneficiary
	}
	list = append(list, newBeneficiary(account, share))
	if err := e.state.SplitpayPutBeneficiaries(list); err != nil {
		return err
	}
	e.emit(BeneficiaryAddedEvent(account, share))
	return nil
}

// RemoveBeneficiary drops account from the ledger and pays out its pending
// balance. A refused payout leaves the ledger untouched.
func (e *Engine) RemoveBeneficiary(caller, account [20]byte) error {
	if err := e.ensureNotPaused(); err != nil {
		return err
	}
	if err := e.requireManager(caller); err != nil {
		return err
	}
	list, err := e.state.SplitpayBeneficiaries()
	if err != nil {
		return err
	}
	idx := findBeneficiary(list, account)
	if idx < 0 {
		return ErrBeneficiaryNotFound
	}
	pending := cloneAmount(list[idx].PendingBalance)

	remaining := make([]*Beneficiary, 0, len(list)-1)
	remaining = append(remaining, list[:idx]...)
	remaining = append(remaining, list[idx+1:]...)

	snapshot := e.state.Snapshot()
	if err := e.state.SplitpayPutBeneficiaries(remaining); err != nil {
		e.state.RevertToSnapshot(snapshot)
		return err
	}
	if !pending.IsZero() {
		if err := e.payout(snapshot, account, pending); err != nil {
			return err
		}
	}
	e.emit(BeneficiaryRemovedEvent(account, pending))
	return nil
}
