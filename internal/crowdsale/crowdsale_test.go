package crowdsale_test

import (
	"testing"

	"github.com/Mohsinsiddi/qbx/internal/crowdsale"
	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accounts(n int) []common.Address {
	out := make([]common.Address, n)
	for i := range out {
		out[i] = common.BigToAddress(uint256.NewInt(uint64(0x100 + i)).ToBig())
	}
	return out
}

func whole(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), token.Unit(18))
}

func TestDefaultScenarioDistribution(t *testing.T) {
	accs := accounts(6)
	res, err := crowdsale.Simulate(crowdsale.DefaultParams(), accs)
	require.NoError(t, err)

	assert.Equal(t, accs[0], res.Owner)
	assert.Equal(t, whole(40), res.Allocation[accs[1]])
	assert.Equal(t, whole(30), res.Allocation[accs[2]])
	assert.Equal(t, whole(20), res.Allocation[accs[3]])
	assert.Equal(t, whole(10), res.Allocation[accs[4]])
	assert.Nil(t, res.Allocation[accs[5]])
	assert.Nil(t, res.Allocation[accs[0]])
	assert.Len(t, res.Purchases, 4)
	assert.False(t, res.GoalReached)
}

func TestContributionRoundsUp(t *testing.T) {
	accs := accounts(2)
	p := crowdsale.DefaultParams()
	p.Split = []uint64{40}

	res, err := crowdsale.Simulate(p, accs)
	require.NoError(t, err)
	require.Len(t, res.Purchases, 1)
	// 40e18 / 6000 = 6666666666666666.67
	assert.Equal(t, "6666666666666667", res.Purchases[0].Wei.Dec())
	assert.Equal(t, res.Purchases[0].Wei, res.WeiRaised)
}

func TestPreferentialRate(t *testing.T) {
	accs := accounts(3)
	p := crowdsale.DefaultParams()
	p.Split = []uint64{8, 8}
	p.Preferential = []common.Address{accs[2]}

	res, err := crowdsale.Simulate(p, accs)
	require.NoError(t, err)
	assert.Equal(t, uint64(6000), res.Purchases[0].Rate)
	assert.Equal(t, uint64(8000), res.Purchases[1].Rate)
	assert.Equal(t, "1000000000000000", res.Purchases[1].Wei.Dec())
	assert.True(t, res.Purchases[1].Wei.Lt(res.Purchases[0].Wei))
	assert.Equal(t, whole(8), res.Allocation[accs[2]])
}

func TestGoalReached(t *testing.T) {
	p := crowdsale.DefaultParams()
	p.Goal = uint256.NewInt(1)
	res, err := crowdsale.Simulate(p, accounts(6))
	require.NoError(t, err)
	assert.True(t, res.GoalReached)
}

func TestCapReached(t *testing.T) {
	p := crowdsale.DefaultParams()
	p.Goal = uint256.NewInt(1)
	p.Cap = uint256.NewInt(1_000)
	_, err := crowdsale.Simulate(p, accounts(6))
	assert.ErrorIs(t, err, crowdsale.ErrCapReached)
}

func TestInvalidParams(t *testing.T) {
	accs := accounts(6)

	p := crowdsale.DefaultParams()
	p.Rate = 0
	_, err := crowdsale.Simulate(p, accs)
	assert.ErrorIs(t, err, crowdsale.ErrInvalidRate)

	p = crowdsale.DefaultParams()
	p.PreferentialRate = 100
	_, err = crowdsale.Simulate(p, accs)
	assert.ErrorIs(t, err, crowdsale.ErrInvalidRate)

	p = crowdsale.DefaultParams()
	p.Goal = crowdsale.ToAtto(crowdsale.DefaultCap + 1)
	_, err = crowdsale.Simulate(p, accs)
	assert.ErrorIs(t, err, crowdsale.ErrInvalidGoal)

	_, err = crowdsale.Simulate(crowdsale.DefaultParams(), accs[:5])
	assert.ErrorIs(t, err, crowdsale.ErrTooFewAccounts)
}

func TestResultDeploysLedger(t *testing.T) {
	accs := accounts(6)
	res, err := crowdsale.Simulate(crowdsale.DefaultParams(), accs)
	require.NoError(t, err)

	l, err := res.Token(token.QBX)
	require.NoError(t, err)
	assert.Equal(t, accs[0], l.Owner())
	assert.Equal(t, whole(100), l.TotalSupply())
	assert.True(t, l.BalanceOf(accs[5]).IsZero())
}
