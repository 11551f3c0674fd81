package splitpay

import "github.com/holiman/uint256"

// ReceivePayment accepts amount from payer and splits it across the ledger.
// The host has already attached the value to the contract balance.
func (e *Engine) ReceivePayment(from [20]byte, amount *uint256.Int) error {
	if err := e.ensureNotPaused(); err != nil {
		return err
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	totals, err := e.state.SplitpayTotals()
	if err != nil {
		return err
	}
	totals.Received = saturatingAdd(totals.Received, amount)
	if err := e.state.SplitpayPutTotals(totals); err != nil {
		return err
	}
	if err := e.distribute(amount); err != nil {
		return err
	}
	e.emit(FundsReceivedEvent(from, amount))
	return nil
}

// distribute credits every beneficiary floor(amount*share/100) in insertion
// order. The undivided remainder stays in the pool untracked. With no
// beneficiaries, or no shares, the payment is absorbed entirely.
func (e *Engine) distribute(amount *uint256.Int) error {
	list, err := e.state.SplitpayBeneficiaries()
	if err != nil {
		return err
	}
	if len(list) == 0 || sumShares(list) == 0 {
		return nil
	}
	credited := new(uint256.Int)
	for _, b := range list {
		share := shareOf(amount, b.SharePercentage)
		b.PendingBalance = saturatingAdd(b.PendingBalance, share)
		credited = saturatingAdd(credited, share)
	}
	if err := e.state.SplitpayPutBeneficiaries(list); err != nil {
		return err
	}
	totals, err := e.state.SplitpayTotals()
	if err != nil {
		return err
	}
	totals.Distributed = saturatingAdd(totals.Distributed, amount)
	if err := e.state.SplitpayPutTotals(totals); err != nil {
		return err
	}
	e.emit(FundsDistributedEvent(amount, len(list), credited))
	return nil
}
