package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/swarmforge/arena/internal/agents"
	"github.com/swarmforge/arena/internal/entropy"
	"github.com/swarmforge/arena/internal/hypothesis"
	"github.com/swarmforge/arena/internal/ledger"
	"github.com/swarmforge/arena/internal/x402"
)

// runState carries everything one run mutates. Rounds are stateless across
// each other except for agent balances and the strategist's bribe pool.
type runState struct {
	cfg     hypothesis.Hypothesis
	stream  *entropy.Stream
	roster  *agents.Roster
	settler x402.Settler
	observe func(ledger.Entry)
	entries []ledger.Entry
}

func (st *runState) append(e ledger.Entry) {
	st.entries = append(st.entries, e)
	if st.observe != nil {
		st.observe(e)
	}
}

// payForData runs one data purchase: free during the early window when the
// paywall is lax, otherwise a settled x402 payment clamped to the buyer's
// balance. Insufficient funds and settlement failures both log a skipped
// entry and the round moves on.
func (st *runState) payForData(ctx context.Context, round int, from, to *agents.Agent) {
	if !st.cfg.PaywallStrict && round <= 2 {
		st.append(ledger.Entry{
			Round:   round,
			Kind:    ledger.KindFreeData,
			From:    string(from.ID),
			To:      string(to.ID),
			Amount:  0,
			Public:  true,
			Summary: "Free access before strict x402 kicks in",
			Comment: fmt.Sprintf("%s: taking free data window before strict x402.", from.Name),
		})
		return
	}

	payable := from.ClampToBalance(st.cfg.Price)
	if payable <= 0 {
		st.append(ledger.Entry{
			Round:   round,
			Kind:    ledger.KindSkipped,
			From:    string(from.ID),
			To:      string(to.ID),
			Amount:  0,
			Public:  true,
			Summary: "Insufficient balance",
			Comment: fmt.Sprintf("%s: cannot pay now (budget exhausted).", from.Name),
		})
		return
	}

	receipt, err := st.settler.Pay(ctx, string(from.ID), string(to.ID), payable)
	if err != nil {
		slog.Warn("data payment did not settle", "round", round, "from", from.ID, "error", err)
		st.append(ledger.Entry{
			Round:   round,
			Kind:    ledger.KindSkipped,
			From:    string(from.ID),
			To:      string(to.ID),
			Amount:  0,
			Public:  true,
			Summary: "Settlement failed",
			Comment: fmt.Sprintf("%s: payment did not settle; skipping this round.", from.Name),
		})
		return
	}

	from.Adjust(-payable)
	to.Adjust(payable)
	st.append(ledger.Entry{
		Round:    round,
		Kind:     ledger.KindPayment,
		From:     string(from.ID),
		To:       string(to.ID),
		Amount:   payable,
		TxSig:    receipt.TxSig,
		Explorer: receipt.Explorer,
		Public:   true,
		Summary:  "Paid data via x402",
		Comment:  fmt.Sprintf("%s: paying %s USDC to %s for data.", from.Name, fmtAmount(payable), to.Name),
	})
}

// maybeBribe rolls the strategist's side-payment. The roll consumes exactly
// one stream draw per eligible round whether or not the bribe goes through,
// which is what keeps seeded replays aligned.
func (st *runState) maybeBribe(ctx context.Context, round int) {
	if round < st.cfg.BribeRound {
		return
	}
	if st.stream.Float() > st.cfg.CartelChance {
		return
	}

	strategist, trader := st.roster.Strategist, st.roster.Trader
	amount := strategist.ClampToBalance(math.Min(st.cfg.BribeAmount, strategist.BribeBudget))
	if amount <= 0 {
		// Pool or balance exhausted: the attempt leaves no ledger trace.
		return
	}

	receipt, err := st.settler.Pay(ctx, string(strategist.ID), string(trader.ID), amount)
	if err != nil {
		// A failed side-deal stays off the ledger; a public skipped entry
		// would leak the attempt.
		slog.Warn("bribe did not settle", "round", round, "error", err)
		return
	}

	strategist.SpendBribeBudget(amount)
	strategist.Adjust(-amount)
	trader.Adjust(amount)
	st.append(ledger.Entry{
		Round:    round,
		Kind:     ledger.KindBribe,
		From:     string(strategist.ID),
		To:       string(trader.ID),
		Amount:   amount,
		TxSig:    receipt.TxSig,
		Explorer: receipt.Explorer,
		Public:   false,
		Summary:  "Side deal to secure future data sharing",
		Comment:  fmt.Sprintf("%s: side-paying %s (%s USDC) to favor my signals.", strategist.Name, trader.Name, fmtAmount(amount)),
	})
}

// maybeWhistleblow appends the reveal marker at exactly the configured round.
// The marker carries no balance effect and does not change later bribe
// probability; downstream analytics decide what it means.
func (st *runState) maybeWhistleblow(round int) {
	if !st.cfg.Whistleblower || st.cfg.WhistleblowerRound == 0 {
		return
	}
	if round != st.cfg.WhistleblowerRound {
		return
	}
	st.append(ledger.Entry{
		Round:   round,
		Kind:    ledger.KindReveal,
		From:    "auditor",
		To:      "public",
		Amount:  0,
		Public:  true,
		Summary: "Whistleblower exposes bribes; chill expected",
		Comment: "Auditor: whistleblower exposes side-payments; expect chilled bribes.",
	})
}

// fmtAmount renders a token amount the shortest way that round-trips, so
// ledger comments read "0.003" rather than "0.003000".
func fmtAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
