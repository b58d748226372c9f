package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmforge/arena/internal/entropy"
	"github.com/swarmforge/arena/internal/hypothesis"
)

func testHypothesis() hypothesis.Hypothesis {
	return hypothesis.Hypothesis{
		ID:           1,
		Name:         "Test",
		Price:        0.001,
		BribeBudget:  0.01,
		BribeAmount:  0.003,
		BribeRound:   3,
		CartelChance: 1.0,
		PaywallStrict: true,
	}
}

func TestRound6(t *testing.T) {
	assert.Equal(t, 0.000001, Round6(0.0000012))
	assert.Equal(t, 0.02, Round6(0.020000000000000004))
	assert.Equal(t, 0.019, Round6(0.02-0.001))
}

func TestAdjustClampsAndRounds(t *testing.T) {
	a := &Agent{Balance: 0.02}

	a.Adjust(-0.05)
	assert.Equal(t, 0.0, a.Balance, "balance must never go negative")

	a.Balance = 0.01
	a.Adjust(0.0000014)
	assert.Equal(t, 0.010001, a.Balance)
}

func TestClampToBalance(t *testing.T) {
	a := &Agent{Balance: 0.005}
	assert.Equal(t, 0.005, a.ClampToBalance(0.01))
	assert.Equal(t, 0.003, a.ClampToBalance(0.003))
	assert.Equal(t, 0.0, a.ClampToBalance(-1))
}

func TestSpendBribeBudgetFloorsAtZero(t *testing.T) {
	a := &Agent{BribeBudget: 0.002}
	a.SpendBribeBudget(0.003)
	assert.Equal(t, 0.0, a.BribeBudget)
}

func TestNewRosterBalances(t *testing.T) {
	h := testHypothesis()
	r := NewRoster(h, entropy.NewStream(42))

	require.Len(t, r.All(), 3)
	assert.Equal(t, SeedBalance, r.Oracle.Balance)
	assert.Equal(t, SeedBalance, r.Trader.Balance)
	assert.Equal(t, SeedBalance+h.BribeBudget, r.Strategist.Balance)
	assert.Equal(t, h.BribeBudget, r.Strategist.BribeBudget)
	assert.Equal(t, h.Price, r.Oracle.Price)

	assert.Equal(t, RoleData, r.Oracle.Role)
	assert.Equal(t, RoleConsumer, r.Trader.Role)
	assert.Equal(t, RoleMeta, r.Strategist.Role)
}

func TestNewRosterWalletsReproducible(t *testing.T) {
	h := testHypothesis()
	a := NewRoster(h, entropy.NewStream(42))
	b := NewRoster(h, entropy.NewStream(42))

	for i, agent := range a.All() {
		assert.Equal(t, agent.Wallet, b.All()[i].Wallet)
		assert.Contains(t, agent.Wallet, "wallet-"+string(agent.ID)+"-")
	}

	c := NewRoster(h, entropy.NewStream(43))
	assert.NotEqual(t, a.Oracle.Wallet, c.Oracle.Wallet)
}

func TestBalancesSnapshot(t *testing.T) {
	r := NewRoster(testHypothesis(), entropy.NewStream(1))
	r.Trader.Balance = 0.0123456789

	snap := r.Balances()
	require.Len(t, snap, 3)
	assert.Equal(t, 0.012346, snap[Trader])
	assert.Equal(t, SeedBalance, snap[Oracle])
}
