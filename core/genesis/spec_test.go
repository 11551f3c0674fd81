package genesis

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"splitpay/core/state"
	"splitpay/crypto"
	"splitpay/native/bank"
	"splitpay/native/splitpay"
	"splitpay/storage"
)

const (
	ownerHex = "0x0100000000000000000000000000000000000000"
	aliceHex = "0xa100000000000000000000000000000000000000"
	bobHex   = "0xb000000000000000000000000000000000000000"
)

func sampleGenesis() string {
	manager := crypto.AddressFromArray([20]byte{0x0a}).String()
	return fmt.Sprintf(`
owner: %s
managers:
  - %s
beneficiaries:
  - account: %s
    share: 60
  - account: %s
    share: 40
alloc:
  %s: "5000"
paused: true
`, ownerHex, manager, aliceHex, bobHex, bobHex)
}

func TestLoadAndApplyGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleGenesis()), 0o600))

	spec, err := LoadGenesisSpec(path)
	require.NoError(t, err)

	db := storage.NewMemDB()
	defer db.Close()
	mgr := state.NewManager(db)

	applied, err := Apply(spec, mgr)
	require.NoError(t, err)
	require.True(t, applied)
	require.Zero(t, mgr.Pending())
	version, ok, err := mgr.LedgerVersion()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, state.LedgerVersion, version)

	engine := splitpay.NewEngine()
	engine.SetState(mgr)
	owner, err := engine.Owner()
	require.NoError(t, err)
	require.Equal(t, [20]byte{0x01}, owner)

	isManager, err := engine.IsManager([20]byte{0x0a})
	require.NoError(t, err)
	require.True(t, isManager)

	shares, err := engine.TotalShares()
	require.NoError(t, err)
	require.EqualValues(t, 100, shares)

	paused, err := engine.IsPaused()
	require.NoError(t, err)
	require.True(t, paused)

	balance, err := bank.NewVault(mgr).AccountBalance([20]byte{0xb0})
	require.NoError(t, err)
	require.EqualValues(t, 5000, balance.Uint64())

	// A second apply leaves the existing ledger alone.
	applied, err = Apply(spec, mgr)
	require.NoError(t, err)
	require.False(t, applied)
}

func TestParseGenesisRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing owner":    "beneficiaries: []\n",
		"unknown field":    fmt.Sprintf("owner: %s\nfee: 3\n", ownerHex),
		"zero share":       fmt.Sprintf("owner: %s\nbeneficiaries:\n  - account: %s\n    share: 0\n", ownerHex, aliceHex),
		"over 100":         fmt.Sprintf("owner: %s\nbeneficiaries:\n  - account: %s\n    share: 70\n  - account: %s\n    share: 31\n", ownerHex, aliceHex, bobHex),
		"duplicate":        fmt.Sprintf("owner: %s\nbeneficiaries:\n  - account: %s\n    share: 10\n  - account: %s\n    share: 10\n", ownerHex, aliceHex, aliceHex),
		"bad amount":       fmt.Sprintf("owner: %s\nalloc:\n  %s: \"-5\"\n", ownerHex, aliceHex),
		"zero owner":       "owner: 0x0000000000000000000000000000000000000000\n",
		"wrong bech32 hr":  "owner: nhb1qqqsyqcyq5rqwzqfpg9scrgwpugpzysnzs23v\n",
		"pool beneficiary": fmt.Sprintf("owner: %s\nbeneficiaries:\n  - account: 0x%x\n    share: 10\n", ownerHex, bank.PoolAddress[:]),
		"pool alloc":       fmt.Sprintf("owner: %s\nalloc:\n  0x%x: \"5\"\n", ownerHex, bank.PoolAddress[:]),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGenesisSpec([]byte(doc))
			require.Error(t, err)
		})
	}
}
