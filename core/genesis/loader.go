package genesis

import (
	"bytes"
	"fmt"
	"sort"

	"splitpay/core/state"
	"splitpay/native/bank"
	"splitpay/native/splitpay"
)

// Apply writes the genesis ledger into manager and commits it. It is a no-op
// returning false when the state already has an owner.
func Apply(spec *GenesisSpec, manager *state.Manager) (bool, error) {
	if spec == nil {
		return false, fmt.Errorf("genesis spec must not be nil")
	}
	if manager == nil {
		return false, fmt.Errorf("state manager must not be nil")
	}
	current, err := manager.SplitpayOwner()
	if err != nil {
		return false, fmt.Errorf("load owner: %w", err)
	}
	if current != ([20]byte{}) {
		return false, nil
	}

	engine := splitpay.NewEngine()
	engine.SetState(manager)
	vault := bank.NewVault(manager)
	engine.SetHost(vault)

	if err := apply(spec, engine, vault); err != nil {
		manager.Discard()
		return false, err
	}
	if err := manager.SetLedgerVersion(state.LedgerVersion); err != nil {
		manager.Discard()
		return false, err
	}
	if err := manager.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func apply(spec *GenesisSpec, engine *splitpay.Engine, vault *bank.Vault) error {
	if err := engine.InitOwner(spec.owner); err != nil {
		return fmt.Errorf("init owner: %w", err)
	}
	for _, m := range spec.managers {
		if err := engine.AddManager(spec.owner, m); err != nil {
			return fmt.Errorf("add manager: %w", err)
		}
	}
	for _, b := range spec.beneficiaries {
		if err := engine.AddBeneficiary(spec.owner, b.account, b.share); err != nil {
			return fmt.Errorf("add beneficiary: %w", err)
		}
	}

	// Credit in address order so the resulting state is deterministic.
	alloc := append([]parsedAlloc(nil), spec.alloc...)
	sort.Slice(alloc, func(i, j int) bool {
		return bytes.Compare(alloc[i].account[:], alloc[j].account[:]) < 0
	})
	for _, a := range alloc {
		if err := vault.Credit(a.account, a.amount); err != nil {
			return fmt.Errorf("alloc: %w", err)
		}
	}

	if spec.Paused {
		if err := engine.Pause(spec.owner); err != nil {
			return fmt.Errorf("pause: %w", err)
		}
	}
	return nil
}
