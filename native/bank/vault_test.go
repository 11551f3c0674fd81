package bank

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"splitpay/core/state"
	"splitpay/storage"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewVault(state.NewManager(db))
}

func TestVaultAttachAndTransfer(t *testing.T) {
	vault := newTestVault(t)
	payer := [20]byte{1}
	payee := [20]byte{2}

	require.NoError(t, vault.Credit(payer, uint256.NewInt(100)))
	require.NoError(t, vault.Attach(payer, uint256.NewInt(60)))

	pool, err := vault.ContractBalance()
	require.NoError(t, err)
	require.EqualValues(t, 60, pool.Uint64())
	left, err := vault.AccountBalance(payer)
	require.NoError(t, err)
	require.EqualValues(t, 40, left.Uint64())

	require.NoError(t, vault.Transfer(payee, uint256.NewInt(25)))
	got, err := vault.AccountBalance(payee)
	require.NoError(t, err)
	require.EqualValues(t, 25, got.Uint64())
	pool, err = vault.ContractBalance()
	require.NoError(t, err)
	require.EqualValues(t, 35, pool.Uint64())
}

func TestVaultRejects(t *testing.T) {
	vault := newTestVault(t)
	payer := [20]byte{1}

	require.ErrorIs(t, vault.Attach(payer, uint256.NewInt(1)), ErrInsufficientFunds)
	require.ErrorIs(t, vault.Transfer(payer, uint256.NewInt(1)), ErrInsufficientFunds)
	require.ErrorIs(t, vault.Transfer([20]byte{}, uint256.NewInt(1)), ErrInvalidRecipient)
	require.ErrorIs(t, vault.Transfer(vault.Pool(), uint256.NewInt(1)), ErrInvalidRecipient)
	require.ErrorIs(t, vault.Credit(vault.Pool(), uint256.NewInt(1)), ErrInvalidRecipient)
	require.ErrorIs(t, vault.Credit([20]byte{}, uint256.NewInt(1)), ErrInvalidRecipient)
	require.True(t, vault.Reserved(vault.Pool()))
	require.True(t, vault.Reserved([20]byte{}))
	require.False(t, vault.Reserved(payer))

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 127)
	require.NoError(t, vault.Credit(payer, huge))
	require.ErrorIs(t, vault.Credit(payer, huge), ErrBalanceOverflow)
}
