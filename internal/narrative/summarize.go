// Package narrative interprets a finished ledger: cartel and betrayal
// detection, top earner, and a deterministic human-readable report.
package narrative

import (
	"fmt"
	"strings"

	"github.com/swarmforge/arena/internal/agents"
	"github.com/swarmforge/arena/internal/ledger"
)

// Metrics are the derived signals backing the narrative text. Field names are
// part of the external JSON contract.
type Metrics struct {
	TotalTxs         int         `json:"totalTxs"`
	TotalVolume      float64     `json:"totalVolume"`
	BribeCount       int         `json:"bribeCount"`
	CollusionRatio   float64     `json:"collusionRatio"`
	CartelPair       *string     `json:"cartelPair"`
	BetrayalDetected bool        `json:"betrayalDetected"`
	TopEarner        agents.ID   `json:"topEarner"`
	BankruptAgents   []agents.ID `json:"bankruptAgents"`
}

// Summary is the narrative output of one run.
type Summary struct {
	Text    string  `json:"text"`
	Metrics Metrics `json:"metrics"`
}

// cartelThreshold is how many private payments an ordered (from,to) pair
// needs before it reads as a cartel.
const cartelThreshold = 3

// Summarize derives the run narrative. Pure over (runID, ledger, roster);
// every empty-input case yields a zero default rather than an error.
func Summarize(runID string, entries []ledger.Entry, roster []*agents.Agent) Summary {
	var m Metrics
	m.BankruptAgents = []agents.ID{}

	var private []ledger.Entry
	for _, e := range entries {
		if !e.IsPaymentLike() {
			continue
		}
		m.TotalTxs++
		m.TotalVolume += e.Amount
		if !e.Public {
			private = append(private, e)
		}
	}
	if m.TotalTxs > 0 {
		m.CollusionRatio = float64(len(private)) / float64(m.TotalTxs)
	}

	// Bribes plus any payment incorrectly marked non-public: both read as
	// collusion signals.
	for _, e := range entries {
		if e.Kind == ledger.KindBribe || (e.Kind == ledger.KindPayment && !e.Public) {
			m.BribeCount++
		}
	}

	m.CartelPair = detectCartel(private)
	m.BetrayalDetected = detectBetrayal(entries)

	// Strictly-greatest final balance wins; ties go to the first agent in
	// registry order. Documented tie-break, not an accident.
	earnings := make(map[agents.ID]float64, len(roster))
	for i, a := range roster {
		earnings[a.ID] = a.Balance
		if i == 0 || a.Balance > earnings[m.TopEarner] {
			m.TopEarner = a.ID
		}
	}

	for _, a := range roster {
		if a.Balance <= 0 {
			m.BankruptAgents = append(m.BankruptAgents, a.ID)
		}
	}

	return Summary{Text: renderText(runID, m, earnings), Metrics: m}
}

// detectCartel reports the first ordered (from,to) pair — in first-occurrence
// order — with at least cartelThreshold private payments, or nil.
func detectCartel(private []ledger.Entry) *string {
	counts := make(map[string]int)
	var order []string
	for _, p := range private {
		key := p.From + "->" + p.To
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	for _, key := range order {
		if counts[key] >= cartelThreshold {
			pair := key
			return &pair
		}
	}
	return nil
}

// detectBetrayal reports whether any bribed agent later (strictly later
// round) paid a counterparty other than its briber. Run-level boolean; the
// first match short-circuits.
func detectBetrayal(entries []ledger.Entry) bool {
	for _, b := range entries {
		if b.Kind != ledger.KindBribe {
			continue
		}
		for _, e := range entries {
			if e.Round <= b.Round || e.From != b.To {
				continue
			}
			if e.Kind != ledger.KindPayment && e.Kind != ledger.KindBribe {
				continue
			}
			if e.To != b.From {
				return true
			}
		}
	}
	return false
}

func renderText(runID string, m Metrics, earnings map[agents.ID]float64) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Run %s: %d payments totaling %.4f USDC.", runID, m.TotalTxs, m.TotalVolume))
	if m.BribeCount > 0 {
		parts = append(parts, fmt.Sprintf("%d bribe(s) observed.", m.BribeCount))
	}
	parts = append(parts, fmt.Sprintf("Collusion ratio (private/total) = %.2f.", m.CollusionRatio))
	if m.CartelPair != nil {
		pretty := strings.Replace(*m.CartelPair, "->", " ↔ ", 1)
		parts = append(parts, fmt.Sprintf("Cartel-like behavior detected between %s.", pretty))
	}
	if m.BetrayalDetected {
		parts = append(parts, "A betrayal event occurred (partner switched after a side-deal).")
	}
	if m.TopEarner != "" {
		parts = append(parts, fmt.Sprintf("Top earner: %s (%.4f USDC).", m.TopEarner, earnings[m.TopEarner]))
	}
	if len(m.BankruptAgents) > 0 {
		ids := make([]string, len(m.BankruptAgents))
		for i, id := range m.BankruptAgents {
			ids[i] = string(id)
		}
		parts = append(parts, fmt.Sprintf("Bankrupt agents: %s.", strings.Join(ids, ", ")))
	}
	return strings.Join(parts, " ")
}
