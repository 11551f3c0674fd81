package splitpay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithdraw(t *testing.T) {
	engine, _, host := fundedEngine(t)

	require.NoError(t, engine.Withdraw(alice, amount(400)))
	b, ok, err := engine.Beneficiary(alice)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 600, b.PendingBalance.Uint64())
	require.EqualValues(t, 400, b.TotalWithdrawn.Uint64())
	require.Len(t, host.transfers, 1)
	require.Equal(t, alice, host.transfers[0].to)
}

func TestWithdrawErrors(t *testing.T) {
	engine, _, host := fundedEngine(t)

	cases := []struct {
		name   string
		caller [20]byte
		amount uint64
		want   error
	}{
		{"not a beneficiary", bob, 10, ErrUnauthorized},
		{"zero amount", alice, 0, ErrNoFundsAvailable},
		{"more than pending", alice, 1001, ErrInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := engine.Withdraw(tc.caller, amount(tc.amount))
			require.ErrorIs(t, err, tc.want)
		})
	}
	require.Empty(t, host.transfers)
	require.EqualValues(t, 1000, pendingOf(t, engine, alice))
}

func TestWithdrawAll(t *testing.T) {
	engine, _, host, recorder := newTestEngine(t)
	require.NoError(t, engine.AddBeneficiary(owner, alice, 100))
	require.ErrorIs(t, engine.WithdrawAll(alice), ErrNoFundsAvailable)
	require.ErrorIs(t, engine.WithdrawAll(bob), ErrUnauthorized)

	require.NoError(t, engine.ReceivePayment(payer, amount(250)))
	require.NoError(t, engine.WithdrawAll(alice))
	require.EqualValues(t, 0, pendingOf(t, engine, alice))
	require.EqualValues(t, 250, host.transfers[0].amount.Uint64())
	require.Contains(t, recorder.Types(), EventTypeWithdrawal)

	require.ErrorIs(t, engine.WithdrawAll(alice), ErrNoFundsAvailable)
}

func TestErrorCodes(t *testing.T) {
	require.Equal(t, "", Code(nil))
	require.Equal(t, CodeInsufficientAllowance, Code(ErrInsufficientAllowance))
	require.Equal(t, CodeInternal, Code(errHostRefused))
	require.Equal(t, CodeNoFundsAvailable, Code(ErrNoFundsAvailable))
}
