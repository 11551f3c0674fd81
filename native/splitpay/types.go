package splitpay

import "github.com/holiman/uint256"

// Beneficiary is a registered recipient entitled to a fixed percentage of
// every incoming payment.
type Beneficiary struct {
	Account         [20]byte     `json:"account"`
	SharePercentage uint8        `json:"sharePercentage"`
	PendingBalance  *uint256.Int `json:"pendingBalance"`
	TotalWithdrawn  *uint256.Int `json:"totalWithdrawn"`
}

// Clone returns a deep copy of the beneficiary.
func (b *Beneficiary) Clone() *Beneficiary {
	if b == nil {
		return nil
	}
	clone := *b
	clone.PendingBalance = cloneAmount(b.PendingBalance)
	clone.TotalWithdrawn = cloneAmount(b.TotalWithdrawn)
	return &clone
}

// Approval is a capped, optionally time-limited permission for Spender to
// withdraw from Owner's pending balance.
type Approval struct {
	Owner   [20]byte     `json:"owner"`
	Spender [20]byte     `json:"spender"`
	Amount  *uint256.Int `json:"amount"`
	// ExpiresAt is a unix timestamp in seconds; nil means the approval never
	// expires.
	ExpiresAt *uint64 `json:"expiresAt,omitempty"`
}

// Clone returns a deep copy of the approval.
func (a *Approval) Clone() *Approval {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Amount = cloneAmount(a.Amount)
	if a.ExpiresAt != nil {
		expires := *a.ExpiresAt
		clone.ExpiresAt = &expires
	}
	return &clone
}

// ExpiredAt reports whether the approval is past its expiry at now. An
// approval is still valid during the expiry second itself.
func (a *Approval) ExpiredAt(now int64) bool {
	if a == nil || a.ExpiresAt == nil {
		return false
	}
	if now < 0 {
		return false
	}
	return uint64(now) > *a.ExpiresAt
}

// Totals are the reporting counters. They are not authoritative for
// per-beneficiary accounting.
type Totals struct {
	Received    *uint256.Int `json:"totalReceived"`
	Distributed *uint256.Int `json:"totalDistributed"`
}

// Clone returns a deep copy of the totals.
func (t *Totals) Clone() *Totals {
	if t == nil {
		return nil
	}
	return &Totals{Received: cloneAmount(t.Received), Distributed: cloneAmount(t.Distributed)}
}

// Stats is the reporting snapshot returned by Engine.Stats.
type Stats struct {
	TotalReceived    *uint256.Int `json:"totalReceived"`
	TotalDistributed *uint256.Int `json:"totalDistributed"`
	ContractBalance  *uint256.Int `json:"contractBalance"`
}

func newBeneficiary(account [20]byte, share uint8) *Beneficiary {
	return &Beneficiary{
		Account:         account,
		SharePercentage: share,
		PendingBalance:  new(uint256.Int),
		TotalWithdrawn:  new(uint256.Int),
	}
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}
