package agents

import (
	"fmt"

	"github.com/swarmforge/arena/internal/entropy"
	"github.com/swarmforge/arena/internal/hypothesis"
)

// Roster is the fixed set of agents for one run, in registry order. Registry
// order is load-bearing: it fixes wallet draw order, balance map iteration,
// and the top-earner tie-break.
type Roster struct {
	Oracle     *Agent
	Trader     *Agent
	Strategist *Agent
}

// NewRoster constructs the three agents for a hypothesis. Wallets are derived
// from the agent id plus one draw each from the run stream (oracle, trader,
// strategist — in that order), so the same seed reproduces identical wallets.
func NewRoster(h hypothesis.Hypothesis, stream *entropy.Stream) *Roster {
	r := &Roster{
		Oracle: &Agent{
			ID:      Oracle,
			Name:    "Oracle",
			Role:    RoleData,
			Balance: SeedBalance,
			Price:   h.Price,
		},
		Trader: &Agent{
			ID:       Trader,
			Name:     "Trader",
			Role:     RoleConsumer,
			Balance:  SeedBalance,
			Appetite: 0.7,
		},
		Strategist: &Agent{
			ID:          Strategist,
			Name:        "Strategist",
			Role:        RoleMeta,
			Balance:     SeedBalance + h.BribeBudget,
			BribeBudget: h.BribeBudget,
		},
	}
	for _, a := range r.All() {
		a.Wallet = fmt.Sprintf("wallet-%s-%d", a.ID, int(stream.Float()*1e6))
	}
	return r
}

// All returns the agents in registry order.
func (r *Roster) All() []*Agent {
	return []*Agent{r.Oracle, r.Trader, r.Strategist}
}

// Balances snapshots final balances keyed by agent id, rounded to 6 decimals.
func (r *Roster) Balances() map[ID]float64 {
	out := make(map[ID]float64, 3)
	for _, a := range r.All() {
		out[a.ID] = Round6(a.Balance)
	}
	return out
}
