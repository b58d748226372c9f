// Package engine runs arena simulations: it builds the agent roster, drives
// the per-round decision sequence, and assembles the run result envelope.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/swarmforge/arena/internal/agents"
	"github.com/swarmforge/arena/internal/entropy"
	"github.com/swarmforge/arena/internal/hypothesis"
	"github.com/swarmforge/arena/internal/ledger"
	"github.com/swarmforge/arena/internal/metrics"
	"github.com/swarmforge/arena/internal/narrative"
	"github.com/swarmforge/arena/internal/x402"
)

// Round-count bounds. The floor keeps the free-data window (rounds 1-2) from
// spanning an entire run.
const (
	DefaultRounds = 10
	MinRounds     = 3
	MaxRounds     = 25
)

// ErrBadRounds is returned for round counts outside [MinRounds, MaxRounds].
var ErrBadRounds = errors.New("rounds out of range")

// Input describes one run request. Exactly one of HypothesisID or Custom
// selects the scenario; Custom wins when set.
type Input struct {
	HypothesisID int
	Custom       *hypothesis.Hypothesis

	// Seed for the run stream. Nil draws a fresh one, recorded on the result
	// so the run stays replayable.
	Seed *int64

	// Rounds to simulate. Zero means DefaultRounds.
	Rounds int

	// Settler handles payment settlement. Nil means the mock.
	Settler x402.Settler

	// Observe, when set, is called synchronously with each ledger entry as
	// it is appended. Observational only; it must not block for long.
	Observe func(ledger.Entry)
}

// Result is the complete, immutable output of one run. The field names are
// the external JSON contract the HTTP layer and front end depend on.
type Result struct {
	RunID    string                `json:"runId"`
	Seed     int64                 `json:"seed"`
	Config   hypothesis.Hypothesis `json:"config"`
	Ledger   []ledger.Entry        `json:"ledger"`
	Metrics  metrics.Metrics       `json:"metrics"`
	Balances map[agents.ID]float64 `json:"balances"`
	Summary  narrative.Summary     `json:"summary"`
}

// Runner executes runs against a hypothesis catalog. Stateless across runs;
// safe for concurrent use since every run owns a private stream and roster.
type Runner struct {
	Catalog *hypothesis.Catalog
}

// Run executes one simulation. Configuration errors surface before any agent
// or ledger state is created; once rounds start, negative outcomes are
// recorded on the ledger and the run always completes all N rounds.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	cfg, err := r.resolveConfig(in)
	if err != nil {
		return nil, err
	}

	rounds := in.Rounds
	if rounds == 0 {
		rounds = DefaultRounds
	}
	if rounds < MinRounds || rounds > MaxRounds {
		return nil, fmt.Errorf("%w: %d (want %d-%d)", ErrBadRounds, rounds, MinRounds, MaxRounds)
	}

	seed := entropy.DrawSeed()
	if in.Seed != nil {
		seed = *in.Seed
	}

	settler := in.Settler
	if settler == nil {
		settler = x402.Mock{}
	}

	// Canonical draw order: three wallet draws, one run-id draw, then one
	// bribe roll per round from bribeRound on. Reordering any of these
	// breaks seeded replay.
	stream := entropy.NewStream(seed)
	roster := agents.NewRoster(cfg, stream)
	runID := fmt.Sprintf("run-%d-%d", seed, int(stream.Float()*1e6))

	st := &runState{
		cfg:     cfg,
		stream:  stream,
		roster:  roster,
		settler: settler,
		observe: in.Observe,
		entries: make([]ledger.Entry, 0, rounds*4),
	}

	slog.Info("arena run starting",
		"run_id", runID, "hypothesis", cfg.Name, "seed", seed, "rounds", rounds)

	for round := 1; round <= rounds; round++ {
		st.payForData(ctx, round, roster.Trader, roster.Oracle)
		st.payForData(ctx, round, roster.Strategist, roster.Oracle)
		st.maybeBribe(ctx, round)
		st.maybeWhistleblow(round)
	}

	res := &Result{
		RunID:    runID,
		Seed:     seed,
		Config:   cfg,
		Ledger:   st.entries,
		Metrics:  metrics.Compute(st.entries, roster.All(), rounds),
		Balances: roster.Balances(),
		Summary:  narrative.Summarize(runID, st.entries, roster.All()),
	}

	slog.Info("arena run finished",
		"run_id", runID, "entries", len(res.Ledger), "collusion_ratio", res.Metrics.CollusionRatio)
	return res, nil
}

func (r *Runner) resolveConfig(in Input) (hypothesis.Hypothesis, error) {
	if in.Custom != nil {
		if err := in.Custom.Validate(); err != nil {
			return hypothesis.Hypothesis{}, fmt.Errorf("custom hypothesis: %w", err)
		}
		return *in.Custom, nil
	}
	return r.Catalog.ByID(in.HypothesisID)
}
