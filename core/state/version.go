package state

import (
	"errors"
	"fmt"
	"math"
)

// LedgerVersion identifies the on-disk layout of the ledger records.
// Increment it whenever a stored record changes shape.
const LedgerVersion uint32 = 1

var (
	ledgerVersionKey = []byte("splitpay/version")
	// ErrLedgerVersionMismatch indicates the stored layout does not match the
	// one this binary reads.
	ErrLedgerVersionMismatch = errors.New("state: ledger version mismatch")
)

// SetLedgerVersion records version in the pending overlay.
func (m *Manager) SetLedgerVersion(version uint32) error {
	if m == nil {
		return fmt.Errorf("state: manager unavailable")
	}
	return m.KVPut(ledgerVersionKey, uint64(version))
}

// LedgerVersion returns the stored layout version and whether it was present.
func (m *Manager) LedgerVersion() (uint32, bool, error) {
	if m == nil {
		return 0, false, fmt.Errorf("state: manager unavailable")
	}
	var stored uint64
	ok, err := m.KVGet(ledgerVersionKey, &stored)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	if stored > uint64(math.MaxUint32) {
		return 0, false, fmt.Errorf("state: ledger version overflow: %d", stored)
	}
	return uint32(stored), true, nil
}

// EnsureLedgerVersion verifies the stored layout matches LedgerVersion. An
// empty store passes. When allowMigrate is true mismatches are tolerated so
// operators can migrate by hand.
func (m *Manager) EnsureLedgerVersion(allowMigrate bool) error {
	version, ok, err := m.LedgerVersion()
	if err != nil {
		return err
	}
	if !ok || version == LedgerVersion || allowMigrate {
		return nil
	}
	return fmt.Errorf("%w: on-disk=%d expected=%d", ErrLedgerVersionMismatch, version, LedgerVersion)
}
