// Package agents provides the three arena participants and the balance
// arithmetic rules every mutation goes through.
package agents

import (
	"math"
)

// ID identifies an arena agent.
type ID string

const (
	Oracle     ID = "oracle"     // data seller
	Trader     ID = "trader"     // data buyer
	Strategist ID = "strategist" // meta-agent paying off-ledger
)

// Role classifies what an agent does in the market.
type Role string

const (
	RoleData     Role = "data"
	RoleConsumer Role = "consumer"
	RoleMeta     Role = "meta"
)

// SeedBalance is the liquid USDC every agent starts a run with.
const SeedBalance = 0.02

// Agent is one arena participant. Created per run and mutated only by the
// round engine during that run; there is no cross-run agent state.
type Agent struct {
	ID      ID      `json:"id"`
	Name    string  `json:"name"`
	Role    Role    `json:"role"`
	Balance float64 `json:"balance"`
	Wallet  string  `json:"wallet"`

	// Role-specific fields.
	Price    float64 `json:"price,omitempty"`    // oracle: advertised data price
	Appetite float64 `json:"appetite,omitempty"` // trader: buying appetite

	// Strategist only: side-pay pool, tracked separately from Balance and
	// decremented independently as bribes go out. Floored at 0.
	BribeBudget float64 `json:"bribeBudget,omitempty"`
}

// Round6 rounds a token amount to 6 decimal places. Applied after every
// balance mutation so floating-point drift never accumulates into spurious
// negative or fractional-penny balances over many rounds.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Adjust applies a signed delta to the agent's balance, clamping at zero and
// rounding to 6 decimals.
func (a *Agent) Adjust(delta float64) {
	a.Balance = math.Max(0, Round6(a.Balance+delta))
}

// ClampToBalance limits a nominal amount to what the agent can actually pay.
func (a *Agent) ClampToBalance(amount float64) float64 {
	return math.Max(0, math.Min(a.Balance, amount))
}

// SpendBribeBudget deducts from the strategist's side-pay pool, floored at 0.
func (a *Agent) SpendBribeBudget(amount float64) {
	a.BribeBudget = math.Max(0, a.BribeBudget-amount)
}
