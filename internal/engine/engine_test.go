package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmforge/arena/internal/agents"
	"github.com/swarmforge/arena/internal/hypothesis"
	"github.com/swarmforge/arena/internal/ledger"
	"github.com/swarmforge/arena/internal/x402"
)

// stubSettler issues deterministic receipts so run envelopes can be compared
// byte for byte.
type stubSettler struct {
	n    int
	fail bool
}

func (s *stubSettler) Pay(_ context.Context, from, to string, amount float64) (x402.Receipt, error) {
	if s.fail {
		return x402.Receipt{}, errors.New("settlement backend down")
	}
	s.n++
	sig := fmt.Sprintf("stub-%04d", s.n)
	return x402.Receipt{
		From: from, To: to, Amount: amount,
		TxSig: sig, Explorer: "https://explorer.invalid/tx/" + sig, Verified: true,
	}, nil
}

func exampleHypothesis() hypothesis.Hypothesis {
	return hypothesis.Hypothesis{
		ID:            99,
		Name:          "Forced Cartel",
		Price:         0.001,
		BribeBudget:   0.01,
		BribeAmount:   0.003,
		BribeRound:    3,
		CartelChance:  1.0,
		PaywallStrict: true,
	}
}

func runCustom(t *testing.T, h hypothesis.Hypothesis, seed int64, rounds int, settler x402.Settler) *Result {
	t.Helper()
	r := &Runner{Catalog: hypothesis.Builtin()}
	res, err := r.Run(context.Background(), Input{
		Custom:  &h,
		Seed:    &seed,
		Rounds:  rounds,
		Settler: settler,
	})
	require.NoError(t, err)
	return res
}

func entriesOfKind(res *Result, kind ledger.Kind) []ledger.Entry {
	var out []ledger.Entry
	for _, e := range res.Ledger {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestRunDeterminism(t *testing.T) {
	a := runCustom(t, exampleHypothesis(), 42, 5, &stubSettler{})
	b := runCustom(t, exampleHypothesis(), 42, 5, &stubSettler{})

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb), "same hypothesis/seed/rounds must replay byte-identically")

	c := runCustom(t, exampleHypothesis(), 43, 5, &stubSettler{})
	assert.NotEqual(t, a.RunID, c.RunID)
}

func TestForcedCartelScenario(t *testing.T) {
	// price 0.001, bribe 0.003 from round 3 with certainty, strict paywall.
	res := runCustom(t, exampleHypothesis(), 7, 5, &stubSettler{})

	payments := entriesOfKind(res, ledger.KindPayment)
	require.Len(t, payments, 10, "trader and strategist each buy data every round")
	for i, p := range payments {
		assert.Equal(t, i/2+1, p.Round)
		assert.Equal(t, 0.001, p.Amount)
		assert.True(t, p.Public)
		assert.Equal(t, "oracle", p.To)
	}

	bribes := entriesOfKind(res, ledger.KindBribe)
	require.Len(t, bribes, 3, "cartelChance 1.0 forces a bribe every round from bribeRound on")
	for i, b := range bribes {
		assert.Equal(t, 3+i, b.Round)
		assert.Equal(t, 0.003, b.Amount)
		assert.False(t, b.Public)
		assert.Equal(t, "strategist", b.From)
		assert.Equal(t, "trader", b.To)
		assert.NotEmpty(t, b.TxSig)
	}

	// Ledger order within a round: trader purchase, strategist purchase, bribe.
	assert.Equal(t, ledger.KindPayment, res.Ledger[0].Kind)
	assert.Equal(t, "trader", res.Ledger[0].From)
	assert.Equal(t, "strategist", res.Ledger[1].From)

	// Final balances: all settled amounts conserved, 6-decimal rounding.
	assert.Equal(t, 0.03, res.Balances[agents.Oracle])
	assert.Equal(t, 0.024, res.Balances[agents.Trader])
	assert.Equal(t, 0.016, res.Balances[agents.Strategist])
}

func TestBribeBudgetExhaustion(t *testing.T) {
	// Budget 0.01 funds bribes of 0.003, 0.003, 0.003, then the 0.001
	// remainder; afterwards attempts clamp to 0 and leave no entry.
	res := runCustom(t, exampleHypothesis(), 7, 10, &stubSettler{})

	bribes := entriesOfKind(res, ledger.KindBribe)
	require.Len(t, bribes, 4)
	assert.Equal(t, []int{3, 4, 5, 6}, []int{bribes[0].Round, bribes[1].Round, bribes[2].Round, bribes[3].Round})
	assert.Equal(t, 0.003, bribes[0].Amount)
	assert.Equal(t, 0.001, bribes[3].Amount)

	total := 0.0
	for _, b := range bribes {
		total += b.Amount
	}
	assert.InDelta(t, 0.01, total, 1e-9, "bribes never exceed the pool")
}

func TestFreeDataWindow(t *testing.T) {
	h := exampleHypothesis()
	h.PaywallStrict = false
	res := runCustom(t, h, 11, 4, &stubSettler{})

	free := entriesOfKind(res, ledger.KindFreeData)
	require.Len(t, free, 4, "both buyers get free data in rounds 1 and 2")
	for _, e := range free {
		assert.LessOrEqual(t, e.Round, 2)
		assert.Equal(t, 0.0, e.Amount)
		assert.True(t, e.Public)
	}

	payments := entriesOfKind(res, ledger.KindPayment)
	for _, p := range payments {
		assert.GreaterOrEqual(t, p.Round, 3, "paid purchases only after the free window")
	}
}

func TestClampingAndSkips(t *testing.T) {
	h := exampleHypothesis()
	h.Price = 1.0 // far above any balance
	h.CartelChance = 0
	res := runCustom(t, h, 3, 4, &stubSettler{})

	payments := entriesOfKind(res, ledger.KindPayment)
	require.NotEmpty(t, payments)
	// First purchase clamps to the trader's whole seed balance.
	assert.Equal(t, agents.SeedBalance, payments[0].Amount)

	skips := entriesOfKind(res, ledger.KindSkipped)
	require.NotEmpty(t, skips, "broke buyers log skipped entries")
	for _, e := range skips {
		assert.Equal(t, 0.0, e.Amount)
		assert.Equal(t, "Insufficient balance", e.Summary)
	}

	assert.Equal(t, 0.0, res.Balances[agents.Trader])
	assert.Greater(t, res.Metrics.BankruptRate, 0.0)
	assert.Contains(t, res.Summary.Metrics.BankruptAgents, agents.Trader)
}

func TestSettlementFailureSkipsStep(t *testing.T) {
	res := runCustom(t, exampleHypothesis(), 5, 5, &stubSettler{fail: true})

	assert.Empty(t, entriesOfKind(res, ledger.KindPayment))
	assert.Empty(t, entriesOfKind(res, ledger.KindBribe))

	skips := entriesOfKind(res, ledger.KindSkipped)
	require.Len(t, skips, 10, "every purchase attempt logs a skipped entry")
	for _, e := range skips {
		assert.Equal(t, "Settlement failed", e.Summary)
	}

	// No partial balance mutation anywhere.
	assert.Equal(t, agents.SeedBalance, res.Balances[agents.Oracle])
	assert.Equal(t, agents.SeedBalance, res.Balances[agents.Trader])
	assert.Equal(t, 0.03, res.Balances[agents.Strategist])
}

func TestWhistleblowerReveal(t *testing.T) {
	h := exampleHypothesis()
	h.Whistleblower = true
	h.WhistleblowerRound = 4
	res := runCustom(t, h, 9, 6, &stubSettler{})

	reveals := entriesOfKind(res, ledger.KindReveal)
	require.Len(t, reveals, 1)
	r := reveals[0]
	assert.Equal(t, 4, r.Round)
	assert.Equal(t, "auditor", r.From)
	assert.Equal(t, "public", r.To)
	assert.Equal(t, 0.0, r.Amount)
	assert.True(t, r.Public)

	// The reveal is a marker only: bribes continue after it.
	bribes := entriesOfKind(res, ledger.KindBribe)
	var after int
	for _, b := range bribes {
		if b.Round > 4 {
			after++
		}
	}
	assert.Greater(t, after, 0)
}

func TestBalanceConservation(t *testing.T) {
	res := runCustom(t, exampleHypothesis(), 21, 8, &stubSettler{})

	total := 0.0
	for _, bal := range res.Balances {
		total += bal
	}
	// 3 seed balances plus the strategist's bribe budget.
	assert.InDelta(t, 3*agents.SeedBalance+0.01, total, 1e-6)

	for _, e := range res.Ledger {
		if e.Kind == ledger.KindPayment || e.Kind == ledger.KindBribe {
			assert.Greater(t, e.Amount, 0.0)
		}
	}
}

func TestUnknownHypothesis(t *testing.T) {
	r := &Runner{Catalog: hypothesis.Builtin()}
	_, err := r.Run(context.Background(), Input{HypothesisID: 404})
	assert.ErrorIs(t, err, hypothesis.ErrUnknown)
}

func TestRoundBounds(t *testing.T) {
	r := &Runner{Catalog: hypothesis.Builtin()}
	seed := int64(1)

	for _, rounds := range []int{1, 2, 26, -5} {
		_, err := r.Run(context.Background(), Input{HypothesisID: 1, Seed: &seed, Rounds: rounds})
		assert.ErrorIs(t, err, ErrBadRounds, "rounds=%d", rounds)
	}

	res, err := r.Run(context.Background(), Input{HypothesisID: 1, Seed: &seed, Settler: &stubSettler{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultRounds, res.Metrics.Rounds)
}

func TestDrawnSeedIsReplayable(t *testing.T) {
	r := &Runner{Catalog: hypothesis.Builtin()}

	first, err := r.Run(context.Background(), Input{HypothesisID: 1, Rounds: 5, Settler: &stubSettler{}})
	require.NoError(t, err)

	replay, err := r.Run(context.Background(), Input{HypothesisID: 1, Seed: &first.Seed, Rounds: 5, Settler: &stubSettler{}})
	require.NoError(t, err)

	assert.Equal(t, first.RunID, replay.RunID)
	assert.Equal(t, first.Ledger, replay.Ledger)
	assert.Equal(t, first.Summary, replay.Summary)
}

func TestObserveSeesEveryEntry(t *testing.T) {
	var seen []ledger.Entry
	r := &Runner{Catalog: hypothesis.Builtin()}
	seed := int64(42)

	res, err := r.Run(context.Background(), Input{
		Custom:  ptr(exampleHypothesis()),
		Seed:    &seed,
		Rounds:  5,
		Settler: &stubSettler{},
		Observe: func(e ledger.Entry) { seen = append(seen, e) },
	})
	require.NoError(t, err)
	assert.Equal(t, res.Ledger, seen)
}

func ptr[T any](v T) *T { return &v }
